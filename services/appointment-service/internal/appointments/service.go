// Package appointments is the appointment query service: range retrieval with
// session-scoped caching, the staff list, and status writes that invalidate the cache.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/apptcache"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidStatus = errors.New("invalid appointment status")

// flightTimeout bounds a shared cache-miss query once no caller can cancel it.
const flightTimeout = 30 * time.Second

type Repository interface {
	ListRange(ctx context.Context, f model.Filter) ([]model.Appointment, error)
	ListStaff(ctx context.Context, tenantID int64) ([]model.Staff, error)
	UpdateStatus(ctx context.Context, tenantID, appointmentID int64, status string) error
}

// Publisher announces appointment writes to other instances and systems.
type Publisher interface {
	AppointmentChanged(ctx context.Context, tenantID, appointmentID int64) error
}

type Service struct {
	repo      Repository
	store     *apptcache.Store
	publisher Publisher
	logger    *slog.Logger
	inflight  singleflight.Group
}

// NewService wires the service. store and publisher may be nil: without a store every
// call reads the database, without a publisher writes only invalidate locally.
func NewService(repo Repository, store *apptcache.Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Retrieve returns the tenant's appointments for the filter, ordered by date then
// start time. Results are cached per session; an empty sessionID bypasses the cache.
// A nil error with an empty slice means nothing matched.
func (s *Service) Retrieve(ctx context.Context, sessionID string, f model.Filter) ([]model.Appointment, error) {
	f = f.Normalized()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if s.store == nil || sessionID == "" {
		return s.load(ctx, f)
	}

	key := apptcache.Key(f)
	rows, hit, gen, err := s.store.Lookup(ctx, sessionID, key, f.TenantID)
	cacheable := err == nil
	if err != nil {
		s.logger.Warn("appointment cache lookup failed", "err", err, "tenant_id", f.TenantID, "key", key)
	}
	if hit {
		return rows, nil
	}

	// The flight outlives any single caller; each caller still stops waiting
	// when its own context ends.
	ch := s.inflight.DoChan(apptcache.SessionKey(sessionID, key), func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		rows, err := s.load(flightCtx, f)
		if err != nil {
			return nil, err
		}
		if cacheable {
			if err := s.store.Put(flightCtx, sessionID, key, gen, rows); err != nil {
				s.logger.Warn("appointment cache store failed", "err", err, "tenant_id", f.TenantID, "key", key)
			}
		}
		return rows, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]model.Appointment), nil
	}
}

func (s *Service) load(ctx context.Context, f model.Filter) ([]model.Appointment, error) {
	rows, err := s.repo.ListRange(ctx, f)
	if err != nil {
		s.logger.Error("appointment query failed", "err", err, "tenant_id", f.TenantID,
			"start", f.Start.Format(model.DateLayout), "end", f.End.Format(model.DateLayout))
		return nil, fmt.Errorf("retrieve appointments: %w", err)
	}
	if rows == nil {
		rows = []model.Appointment{}
	}
	return rows, nil
}

// ListStaff returns the tenant's staff ordered by first name.
func (s *Service) ListStaff(ctx context.Context, tenantID int64) ([]model.Staff, error) {
	if tenantID <= 0 {
		return nil, fmt.Errorf("%w: tenant_id must be positive", model.ErrInvalidFilter)
	}
	staff, err := s.repo.ListStaff(ctx, tenantID)
	if err != nil {
		s.logger.Error("staff query failed", "err", err, "tenant_id", tenantID)
		return nil, fmt.Errorf("list staff: %w", err)
	}
	if staff == nil {
		staff = []model.Staff{}
	}
	return staff, nil
}

// UpdateStatus changes one appointment's status, then invalidates the tenant's
// cached results and announces the change.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, appointmentID int64, status string) error {
	if tenantID <= 0 || appointmentID <= 0 {
		return fmt.Errorf("%w: tenant_id and appointment_id must be positive", model.ErrInvalidFilter)
	}
	if !model.IsKnownStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, appointmentID, status); err != nil {
		return err
	}

	if err := s.Invalidate(ctx, tenantID); err != nil {
		s.logger.Error("appointment cache invalidation failed", "err", err, "tenant_id", tenantID)
	}
	if s.publisher != nil {
		if err := s.publisher.AppointmentChanged(ctx, tenantID, appointmentID); err != nil {
			s.logger.Error("appointment change publish failed", "err", err, "tenant_id", tenantID, "appointment_id", appointmentID)
		}
	}
	return nil
}

// Invalidate drops every cached result for the tenant. It is the hook for writes
// made anywhere else.
func (s *Service) Invalidate(ctx context.Context, tenantID int64) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Invalidate(ctx, tenantID); err != nil {
		return err
	}
	s.logger.Debug("appointment cache invalidated", "tenant_id", tenantID)
	return nil
}
