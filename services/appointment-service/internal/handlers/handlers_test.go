package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/appointments"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/session"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/storage"
)

type fakeService struct {
	appts     []model.Appointment
	staff     []model.Staff
	err       error
	gotFilter model.Filter
	gotSID    string
	updated   []int64
}

func (f *fakeService) Retrieve(_ context.Context, sessionID string, filter model.Filter) ([]model.Appointment, error) {
	f.gotFilter = filter
	f.gotSID = sessionID
	if err := filter.Normalized().Validate(); err != nil {
		return nil, err
	}
	return f.appts, f.err
}

func (f *fakeService) ListStaff(_ context.Context, tenantID int64) ([]model.Staff, error) {
	return f.staff, f.err
}

func (f *fakeService) UpdateStatus(_ context.Context, tenantID, appointmentID int64, status string) error {
	if !model.IsKnownStatus(status) {
		return fmt.Errorf("%w: %q", appointments.ErrInvalidStatus, status)
	}
	if appointmentID == 404 {
		return fmt.Errorf("appointment %d: %w", appointmentID, storage.ErrNotFound)
	}
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, appointmentID)
	return nil
}

type fakeMembers map[int64]string

func (m fakeMembers) IsMember(_ context.Context, tenantID int64, userID string) (bool, error) {
	if userID == "boom" {
		return false, errors.New("db down")
	}
	return m[tenantID] == userID, nil
}

func newTestRouter(svc *fakeService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAppointmentHandler(svc, logger)
	return NewRouter(h,
		session.Middleware(time.Hour, false),
		RequireMembership(fakeMembers{5: "u-1"}, logger),
	)
}

func do(t *testing.T, h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var member = map[string]string{"X-Tenant-Id": "5", "X-User-Id": "u-1"}

func sampleAppointment() model.Appointment {
	return model.Appointment{
		ID:                1,
		TenantID:          5,
		Date:              time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		StartTime:         "10:00:00",
		EndTime:           "11:00:00",
		Status:            model.StatusScheduled,
		Notes:             "first visit",
		CustomerFirstName: "Hanako",
		CustomerLastName:  "Tanaka",
		CustomerPhone:     "090",
		ServiceName:       "Cut",
		StaffID:           7,
		StaffName:         "Sato Ken",
	}
}

func TestList_WeekIncludesDetail(t *testing.T) {
	svc := &fakeService{appts: []model.Appointment{sampleAppointment()}}
	rec := do(t, newTestRouter(svc), http.MethodGet,
		"/api/v1/appointments?start=2025-03-01&end=2025-03-07&staff_id=7&status=scheduled&search=tan", "", member)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0]["notes"] != "first visit" || got[0]["date"] != "2025-03-01" {
		t.Fatalf("unexpected body: %v", got)
	}
	if svc.gotFilter.TenantID != 5 || svc.gotFilter.StaffID == nil || *svc.gotFilter.StaffID != 7 {
		t.Fatalf("unexpected filter: %+v", svc.gotFilter)
	}
	if svc.gotFilter.Status != "scheduled" || svc.gotFilter.Search != "tan" {
		t.Fatalf("unexpected filter: %+v", svc.gotFilter)
	}
	if svc.gotSID == "" {
		t.Fatal("expected a session id to reach the service")
	}
}

func TestList_MonthOmitsDetail(t *testing.T) {
	svc := &fakeService{appts: []model.Appointment{sampleAppointment()}}
	rec := do(t, newTestRouter(svc), http.MethodGet,
		"/api/v1/appointments?start=2025-03-01&end=2025-03-31&view_mode=month", "", member)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %v", got)
	}
	for _, k := range []string{"notes", "customer_phone", "staff_id"} {
		if _, ok := got[0][k]; ok {
			t.Fatalf("month item must not carry %q", k)
		}
	}
	if got[0]["staff_name"] != "Sato Ken" {
		t.Fatalf("unexpected item: %v", got[0])
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	rec := do(t, newTestRouter(&fakeService{}), http.MethodGet,
		"/api/v1/appointments?start=2025-03-01&end=2025-03-31", "", member)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected 200 [], got %d %s", rec.Code, rec.Body.String())
	}
}

func TestList_BadInput(t *testing.T) {
	router := newTestRouter(&fakeService{})
	for _, target := range []string{
		"/api/v1/appointments?end=2025-03-31",
		"/api/v1/appointments?start=2025-13-01&end=2025-03-31",
		"/api/v1/appointments?start=2025-03-31&end=2025-03-01",
		"/api/v1/appointments?start=2025-03-01&end=2025-03-31&staff_id=x",
	} {
		if rec := do(t, router, http.MethodGet, target, "", member); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestList_FailureIs500(t *testing.T) {
	svc := &fakeService{err: errors.New("connection refused")}
	rec := do(t, newTestRouter(svc), http.MethodGet,
		"/api/v1/appointments?start=2025-03-01&end=2025-03-31", "", member)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}
}

func TestMembership(t *testing.T) {
	router := newTestRouter(&fakeService{})
	const target = "/api/v1/staff"

	if rec := do(t, router, http.MethodGet, target, "", map[string]string{"X-User-Id": "u-1"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing tenant: expected 400, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, target, "", map[string]string{"X-Tenant-Id": "5"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing user: expected 400, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, target, "", map[string]string{"X-Tenant-Id": "6", "X-User-Id": "u-1"}); rec.Code != http.StatusForbidden {
		t.Fatalf("other tenant: expected 403, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, target, "", map[string]string{"X-Tenant-Id": "5", "X-User-Id": "boom"}); rec.Code != http.StatusInternalServerError {
		t.Fatalf("checker failure: expected 500, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, target+"?tenant_id=5", "", map[string]string{"X-User-Id": "u-1"}); rec.Code != http.StatusOK {
		t.Fatalf("tenant from query: expected 200, got %d", rec.Code)
	}
}

func TestStaff(t *testing.T) {
	svc := &fakeService{staff: []model.Staff{{ID: 7, TenantID: 5, FirstName: "Ken", LastName: "Sato", Name: "Sato Ken"}}}
	rec := do(t, newTestRouter(svc), http.MethodGet, "/api/v1/staff", "", member)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []staffItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Sato Ken" || got[0].FirstName != "Ken" {
		t.Fatalf("unexpected staff: %+v", got)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc)
	cases := []struct {
		body string
		code int
	}{
		{`{"appointment_id": 1, "status": "cancelled"}`, http.StatusOK},
		{`{"appointment_id": 404, "status": "cancelled"}`, http.StatusNotFound},
		{`{"appointment_id": 1, "status": "teleported"}`, http.StatusBadRequest},
		{`{"status": "cancelled"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := do(t, router, http.MethodPost, "/api/v1/appointments/status", tc.body, member)
		if rec.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.body, tc.code, rec.Code)
		}
	}
	if len(svc.updated) != 1 || svc.updated[0] != 1 {
		t.Fatalf("unexpected updates: %v", svc.updated)
	}
}
