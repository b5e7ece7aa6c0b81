package apptcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/salondesk/libs/cache"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
)

// DefaultSessionTTL bounds how long a session's results live in the backing cache.
const DefaultSessionTTL = 12 * time.Hour

type entry struct {
	Generation int64               `json:"generation"`
	Rows       []model.Appointment `json:"rows"`
}

// Store keeps query results per session on a pluggable cache backend.
type Store struct {
	backend cache.Cache
	gens    Generations
	ttl     time.Duration
}

func NewStore(backend cache.Cache, gens Generations, sessionTTL time.Duration) *Store {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Store{backend: backend, gens: gens, ttl: sessionTTL}
}

// SessionKey namespaces a query key under one browsing session.
func SessionKey(sessionID, key string) string {
	return "sess:" + sessionID + ":" + key
}

// Lookup returns cached rows when present and still current for the tenant.
// The returned generation must be passed to Put for rows fetched after a miss.
func (s *Store) Lookup(ctx context.Context, sessionID, key string, tenantID int64) ([]model.Appointment, bool, int64, error) {
	gen, err := s.gens.Current(ctx, tenantID)
	if err != nil {
		return nil, false, 0, fmt.Errorf("read generation: %w", err)
	}

	skey := SessionKey(sessionID, key)
	raw, ok, err := s.backend.Get(ctx, skey)
	if err != nil {
		return nil, false, gen, fmt.Errorf("cache get: %w", err)
	}
	if !ok {
		return nil, false, gen, nil
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Generation != gen {
		_ = s.backend.Delete(ctx, skey)
		return nil, false, gen, nil
	}
	if e.Rows == nil {
		e.Rows = []model.Appointment{}
	}
	return e.Rows, true, gen, nil
}

// Put stores rows fetched under generation gen.
func (s *Store) Put(ctx context.Context, sessionID, key string, gen int64, rows []model.Appointment) error {
	raw, err := json.Marshal(entry{Generation: gen, Rows: rows})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := s.backend.Set(ctx, SessionKey(sessionID, key), raw, s.ttl); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate orphans every cached result for the tenant, in every session.
func (s *Store) Invalidate(ctx context.Context, tenantID int64) error {
	if _, err := s.gens.Bump(ctx, tenantID); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}
