// Package query assembles the appointment range query from fixed SQL fragments.
// Caller-supplied values only ever travel as positional arguments.
package query

import (
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
)

// Column is one projected expression and where its value lands on scan.
type Column struct {
	Name   string
	Expr   string
	Target func(a *model.Appointment) any
}

// Statement is a ready-to-run query.
type Statement struct {
	SQL     string
	Args    []any
	Columns []Column
}

// ScanTargets returns scan destinations for one row, in projection order.
func (s Statement) ScanTargets(a *model.Appointment) []any {
	dest := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		dest[i] = c.Target(a)
	}
	return dest
}

var compactColumns = []Column{
	{"id", "a.id", func(a *model.Appointment) any { return &a.ID }},
	{"tenant_id", "a.tenant_id", func(a *model.Appointment) any { return &a.TenantID }},
	{"appointment_date", "a.appointment_date", func(a *model.Appointment) any { return &a.Date }},
	{"start_time", "a.start_time::text", func(a *model.Appointment) any { return &a.StartTime }},
	{"end_time", "a.end_time::text", func(a *model.Appointment) any { return &a.EndTime }},
	{"status", "a.status", func(a *model.Appointment) any { return &a.Status }},
	{"customer_first_name", "COALESCE(c.first_name, '')", func(a *model.Appointment) any { return &a.CustomerFirstName }},
	{"customer_last_name", "COALESCE(c.last_name, '')", func(a *model.Appointment) any { return &a.CustomerLastName }},
	{"service_name", "COALESCE(s.name, '')", func(a *model.Appointment) any { return &a.ServiceName }},
	{"service_color", "COALESCE(s.color, '')", func(a *model.Appointment) any { return &a.ServiceColor }},
	{"staff_name", "TRIM(CONCAT_WS(' ', st.last_name, st.first_name))", func(a *model.Appointment) any { return &a.StaffName }},
}

var detailColumns = []Column{
	{"notes", "COALESCE(a.notes, '')", func(a *model.Appointment) any { return &a.Notes }},
	{"customer_id", "COALESCE(a.customer_id, 0)", func(a *model.Appointment) any { return &a.CustomerID }},
	{"customer_phone", "COALESCE(c.phone, '')", func(a *model.Appointment) any { return &a.CustomerPhone }},
	{"customer_email", "COALESCE(c.email, '')", func(a *model.Appointment) any { return &a.CustomerEmail }},
	{"customer_address", "COALESCE(c.address, '')", func(a *model.Appointment) any { return &a.CustomerAddress }},
	{"service_id", "COALESCE(a.service_id, 0)", func(a *model.Appointment) any { return &a.ServiceID }},
	{"service_duration", "COALESCE(s.duration_minutes, 0)", func(a *model.Appointment) any { return &a.ServiceDuration }},
	{"service_price", "COALESCE(s.price::text, '')", func(a *model.Appointment) any { return &a.ServicePrice }},
	{"staff_id", "COALESCE(a.staff_id, 0)", func(a *model.Appointment) any { return &a.StaffID }},
}

// Columns returns the projection for a view mode. The month projection is a
// prefix of every other projection.
func Columns(mode model.ViewMode) []Column {
	if mode.Compact() {
		return compactColumns
	}
	out := make([]Column, 0, len(compactColumns)+len(detailColumns))
	out = append(out, compactColumns...)
	return append(out, detailColumns...)
}

const appointmentJoins = `
FROM appointments a
LEFT JOIN customers c ON c.id = a.customer_id AND c.tenant_id = a.tenant_id
LEFT JOIN services s ON s.id = a.service_id AND s.tenant_id = a.tenant_id
LEFT JOIN staff st ON st.id = a.staff_id AND st.tenant_id = a.tenant_id`

const appointmentOrder = "\nORDER BY a.appointment_date ASC, a.start_time ASC, a.id ASC"

// Build returns the range query for f. f is normalized first; an invalid filter
// yields model.ErrInvalidFilter.
func Build(f model.Filter) (Statement, error) {
	f = f.Normalized()
	if err := f.Validate(); err != nil {
		return Statement{}, err
	}

	cols := Columns(f.ViewMode)
	exprs := make([]string, len(cols))
	for i, c := range cols {
		exprs[i] = c.Expr
	}

	var b predicates
	b.add("a.tenant_id = %s", f.TenantID)
	b.addRange("a.appointment_date BETWEEN %s AND %s", f.Start, f.End)
	if f.StaffID != nil {
		b.add("a.staff_id = %s", *f.StaffID)
	}
	if f.Status != "" {
		b.add("a.status = %s", f.Status)
	}
	if f.Search != "" {
		b.add("(c.first_name ILIKE %[1]s OR c.last_name ILIKE %[1]s OR c.email ILIKE %[1]s OR c.phone ILIKE %[1]s)",
			"%"+EscapeLike(f.Search)+"%")
	}

	var sql strings.Builder
	sql.WriteString("SELECT ")
	sql.WriteString(strings.Join(exprs, ", "))
	sql.WriteString(appointmentJoins)
	sql.WriteString("\nWHERE ")
	sql.WriteString(strings.Join(b.clauses, "\n  AND "))
	sql.WriteString(appointmentOrder)

	return Statement{SQL: sql.String(), Args: b.args, Columns: cols}, nil
}

// StaffSQL lists a tenant's staff ordered by first name.
const StaffSQL = `
SELECT id, tenant_id, COALESCE(first_name, ''), COALESCE(last_name, '')
FROM staff
WHERE tenant_id = $1
ORDER BY first_name ASC, id ASC`

// EscapeLike makes term match literally inside a LIKE pattern (backslash escape).
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

// predicates numbers placeholders as values are appended.
type predicates struct {
	clauses []string
	args    []any
}

func (p *predicates) placeholder(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *predicates) add(format string, v any) {
	p.clauses = append(p.clauses, fmt.Sprintf(format, p.placeholder(v)))
}

func (p *predicates) addRange(format string, lo, hi any) {
	loPH := p.placeholder(lo)
	hiPH := p.placeholder(hi)
	p.clauses = append(p.clauses, fmt.Sprintf(format, loPH, hiPH))
}
