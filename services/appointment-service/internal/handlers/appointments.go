package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/salondesk/libs/httpx"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/appointments"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/session"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/storage"
)

type AppointmentService interface {
	Retrieve(ctx context.Context, sessionID string, f model.Filter) ([]model.Appointment, error)
	ListStaff(ctx context.Context, tenantID int64) ([]model.Staff, error)
	UpdateStatus(ctx context.Context, tenantID, appointmentID int64, status string) error
}

type AppointmentHandler struct {
	svc    AppointmentService
	logger *slog.Logger
}

func NewAppointmentHandler(svc AppointmentService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

// appointmentItem carries the month projection.
type appointmentItem struct {
	ID                int64  `json:"id"`
	Date              string `json:"date"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Status            string `json:"status"`
	CustomerFirstName string `json:"customer_first_name"`
	CustomerLastName  string `json:"customer_last_name"`
	ServiceName       string `json:"service_name"`
	ServiceColor      string `json:"service_color"`
	StaffName         string `json:"staff_name"`
}

type appointmentDetailItem struct {
	appointmentItem
	Notes           string `json:"notes"`
	CustomerID      int64  `json:"customer_id"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	CustomerAddress string `json:"customer_address"`
	ServiceID       int64  `json:"service_id"`
	ServiceDuration int    `json:"service_duration"`
	ServicePrice    string `json:"service_price"`
	StaffID         int64  `json:"staff_id"`
}

type staffItem struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
}

type updateStatusRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	Status        string `json:"status"`
}

type updateStatusResponse struct {
	AppointmentID int64  `json:"appointment_id"`
	Status        string `json:"status"`
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := time.Parse(model.DateLayout, strings.TrimSpace(q.Get("start")))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid start (YYYY-MM-DD)")
		return
	}
	end, err := time.Parse(model.DateLayout, strings.TrimSpace(q.Get("end")))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid end (YYYY-MM-DD)")
		return
	}

	f := model.Filter{
		TenantID: TenantFromContext(r.Context()),
		Start:    start,
		End:      end,
		ViewMode: model.ParseViewMode(q.Get("view_mode")),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
	}
	if raw := strings.TrimSpace(q.Get("staff_id")); raw != "" {
		staffID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid staff_id")
			return
		}
		f.StaffID = &staffID
	}

	appts, err := h.svc.Retrieve(r.Context(), session.FromContext(r.Context()), f)
	if err != nil {
		if errors.Is(err, model.ErrInvalidFilter) {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("list appointments failed", "err", err, "tenant_id", f.TenantID,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load appointments")
		return
	}

	if f.ViewMode.Compact() {
		items := make([]appointmentItem, 0, len(appts))
		for i := range appts {
			items = append(items, toItem(&appts[i]))
		}
		httpx.WriteJSON(w, http.StatusOK, items)
		return
	}
	items := make([]appointmentDetailItem, 0, len(appts))
	for i := range appts {
		a := &appts[i]
		items = append(items, appointmentDetailItem{
			appointmentItem: toItem(a),
			Notes:           a.Notes,
			CustomerID:      a.CustomerID,
			CustomerPhone:   a.CustomerPhone,
			CustomerEmail:   a.CustomerEmail,
			CustomerAddress: a.CustomerAddress,
			ServiceID:       a.ServiceID,
			ServiceDuration: a.ServiceDuration,
			ServicePrice:    a.ServicePrice,
			StaffID:         a.StaffID,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func toItem(a *model.Appointment) appointmentItem {
	return appointmentItem{
		ID:                a.ID,
		Date:              a.Date.Format(model.DateLayout),
		StartTime:         a.StartTime,
		EndTime:           a.EndTime,
		Status:            a.Status,
		CustomerFirstName: a.CustomerFirstName,
		CustomerLastName:  a.CustomerLastName,
		ServiceName:       a.ServiceName,
		ServiceColor:      a.ServiceColor,
		StaffName:         a.StaffName,
	}
}

func (h *AppointmentHandler) Staff(w http.ResponseWriter, r *http.Request) {
	tenantID := TenantFromContext(r.Context())
	staff, err := h.svc.ListStaff(r.Context(), tenantID)
	if err != nil {
		if errors.Is(err, model.ErrInvalidFilter) {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("list staff failed", "err", err, "tenant_id", tenantID,
			"request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load staff")
		return
	}

	items := make([]staffItem, 0, len(staff))
	for _, s := range staff {
		items = append(items, staffItem{ID: s.ID, FirstName: s.FirstName, LastName: s.LastName, Name: s.Name})
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Status = strings.TrimSpace(req.Status)
	if req.AppointmentID <= 0 || req.Status == "" {
		httpx.WriteError(w, http.StatusBadRequest, "appointment_id and status are required")
		return
	}

	tenantID := TenantFromContext(r.Context())
	err := h.svc.UpdateStatus(r.Context(), tenantID, req.AppointmentID, req.Status)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, updateStatusResponse{AppointmentID: req.AppointmentID, Status: req.Status})
	case errors.Is(err, appointments.ErrInvalidStatus), errors.Is(err, model.ErrInvalidFilter):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case storage.IsNotFound(err):
		httpx.WriteError(w, http.StatusNotFound, "appointment not found")
	default:
		h.logger.Error("update appointment status failed", "err", err, "tenant_id", tenantID,
			"appointment_id", req.AppointmentID, "request_id", httpx.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, http.StatusInternalServerError, "failed to update appointment")
	}
}
