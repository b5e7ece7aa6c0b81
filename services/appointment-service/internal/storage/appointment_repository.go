package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/salondesk/libs/db"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/query"
	"go.opentelemetry.io/otel/attribute"
)

var ErrNotFound = errors.New("not found")

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// ListRange returns the tenant's appointments in the filter's inclusive date range,
// ordered by date then start time. No match yields an empty slice.
func (r *AppointmentRepository) ListRange(ctx context.Context, f model.Filter) ([]model.Appointment, error) {
	st, err := query.Build(f)
	if err != nil {
		return nil, err
	}

	ctx, span := db.StartSpan(ctx, "appointments.list_range",
		attribute.Int64("tenant_id", f.TenantID),
		attribute.String("view_mode", string(f.ViewMode)),
	)
	defer span.End()

	rows, err := r.pool.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		var appt model.Appointment
		if err := rows.Scan(st.ScanTargets(&appt)...); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read appointments: %w", err)
	}
	span.SetAttributes(attribute.Int("rows", len(appts)))
	return appts, nil
}

func (r *AppointmentRepository) ListStaff(ctx context.Context, tenantID int64) ([]model.Staff, error) {
	ctx, span := db.StartSpan(ctx, "staff.list", attribute.Int64("tenant_id", tenantID))
	defer span.End()

	rows, err := r.pool.Query(ctx, query.StaffSQL, tenantID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	out := []model.Staff{}
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.TenantID, &s.FirstName, &s.LastName); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		s.Name = model.DisplayName(s.FirstName, s.LastName)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read staff: %w", err)
	}
	return out, nil
}

// IsMember reports whether userID belongs to the tenant.
func (r *AppointmentRepository) IsMember(ctx context.Context, tenantID int64, userID string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `
		SELECT 1
		FROM tenant_members
		WHERE tenant_id = $1 AND user_id = $2
	`, tenantID, userID).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check membership: %w", err)
}

// UpdateStatus sets the status of one tenant-scoped appointment.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tenantID, appointmentID int64, status string) error {
	ctx, span := db.StartSpan(ctx, "appointments.update_status",
		attribute.Int64("tenant_id", tenantID),
		attribute.Int64("appointment_id", appointmentID),
	)
	defer span.End()

	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = $3,
			updated_at = now()
		WHERE id = $2 AND tenant_id = $1
	`, tenantID, appointmentID, status)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointment %d: %w", appointmentID, ErrNotFound)
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}
