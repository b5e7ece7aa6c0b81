package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in filters, cache keys and JSON.
const DateLayout = "2006-01-02"

// ViewMode is a display-density hint: it changes which columns are fetched, not which rows.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
	ViewDay   ViewMode = "day"
)

// ParseViewMode maps unknown or empty values to week (full projection).
func ParseViewMode(raw string) ViewMode {
	switch ViewMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ViewMonth:
		return ViewMonth
	case ViewDay:
		return ViewDay
	default:
		return ViewWeek
	}
}

// Compact reports whether the mode uses the reduced month projection.
func (m ViewMode) Compact() bool {
	return m == ViewMonth
}

// Known appointment statuses. Stored values are free-form; these are what the app writes.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

func IsKnownStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment is one appointment row joined with its customer, service and staff.
// Fields outside the month projection stay zero in month mode.
type Appointment struct {
	ID        int64
	TenantID  int64
	Date      time.Time
	StartTime string // HH:MM:SS
	EndTime   string
	Status    string
	Notes     string

	CustomerID        int64
	CustomerFirstName string
	CustomerLastName  string
	CustomerPhone     string
	CustomerEmail     string
	CustomerAddress   string

	ServiceID       int64
	ServiceName     string
	ServiceDuration int
	ServicePrice    string
	ServiceColor    string

	StaffID   int64
	StaffName string
}

type Staff struct {
	ID        int64
	TenantID  int64
	FirstName string
	LastName  string
	Name      string
}

// DisplayName is "last first", trimmed when either part is missing.
func DisplayName(firstName, lastName string) string {
	return strings.TrimSpace(strings.TrimSpace(lastName) + " " + strings.TrimSpace(firstName))
}

// Filter selects appointments for one tenant over an inclusive date range.
type Filter struct {
	TenantID int64
	Start    time.Time
	End      time.Time
	ViewMode ViewMode
	StaffID  *int64
	Status   string
	Search   string
}

// Normalized trims free-text fields and resolves the view mode.
func (f Filter) Normalized() Filter {
	f.ViewMode = ParseViewMode(string(f.ViewMode))
	f.Status = strings.TrimSpace(f.Status)
	f.Search = strings.TrimSpace(f.Search)
	f.Start = dateOnly(f.Start)
	f.End = dateOnly(f.End)
	return f
}

// HasOptional reports whether anything beyond tenant and range narrows or reshapes the result.
func (f Filter) HasOptional() bool {
	return f.ViewMode.Compact() || f.StaffID != nil || f.Status != "" || f.Search != ""
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ErrInvalidFilter marks caller mistakes: missing tenant, missing dates or an inverted range.
var ErrInvalidFilter = errors.New("invalid appointment filter")

// Validate expects a normalized filter.
func (f Filter) Validate() error {
	switch {
	case f.TenantID <= 0:
		return fmt.Errorf("%w: tenant_id must be positive", ErrInvalidFilter)
	case f.Start.IsZero() || f.End.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidFilter)
	case f.Start.After(f.End):
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidFilter, f.Start.Format(DateLayout), f.End.Format(DateLayout))
	case f.StaffID != nil && *f.StaffID <= 0:
		return fmt.Errorf("%w: staff_id must be positive", ErrInvalidFilter)
	}
	return nil
}
