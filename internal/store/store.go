// Package store caches the configuration lists fetched from the platform.
//
// A store is never patched locally: after any mutation the whole list is
// fetched again with Refresh.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/events"
	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// Lister fetches every record of a kind.
type Lister interface {
	ListEntities(ctx context.Context, kind models.Kind) ([]models.Record, error)
}

// EntityStore holds the last fetched list of one kind.
type EntityStore struct {
	kind   models.Kind
	lister Lister
	bus    *events.EventBus

	mu            sync.RWMutex
	items         []models.Record
	loading       bool
	lastErr       error
	lastRefreshed time.Time
	refreshCount  int
}

// NewEntityStore creates an empty store for kind. bus may be nil.
func NewEntityStore(kind models.Kind, lister Lister, bus *events.EventBus) *EntityStore {
	return &EntityStore{
		kind:   kind,
		lister: lister,
		bus:    bus,
	}
}

// Kind returns the entity kind held by the store.
func (s *EntityStore) Kind() models.Kind {
	return s.kind
}

// Items returns deep copies of the cached records, ordered by sort then id.
// Callers may mutate the result freely.
func (s *EntityStore) Items() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneRecords(s.items)
}

// Len returns the number of cached records.
func (s *EntityStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Find returns a copy of the record with the given id.
func (s *EntityStore) Find(id int64) (models.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.items {
		if rid, ok := r.ID(); ok && rid == id {
			return r.Clone(), true
		}
	}
	return nil, false
}

// Search returns copies of the records whose name, code or key contains
// keyword, case-insensitively. An empty keyword matches everything.
func (s *EntityStore) Search(keyword string) []models.Record {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return s.Items()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Record
	for _, r := range s.items {
		for _, field := range []string{models.FieldName, models.FieldCode, "key"} {
			if strings.Contains(strings.ToLower(r.String(field)), keyword) {
				out = append(out, r.Clone())
				break
			}
		}
	}
	return out
}

// Refresh re-fetches the whole list. On failure the previous items are kept
// and the error is remembered in LastError.
func (s *EntityStore) Refresh(ctx context.Context) error {
	if s.lister == nil {
		return fmt.Errorf("%s store has no data source", s.kind)
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	items, err := s.lister.ListEntities(ctx, s.kind)

	s.mu.Lock()
	s.loading = false
	s.refreshCount++
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.bus.PublishStoreRefreshed(s.kind, 0, err)
		return fmt.Errorf("refresh %s: %w", s.kind.Command(), err)
	}
	s.setLocked(items)
	count := len(s.items)
	s.mu.Unlock()

	s.bus.PublishStoreRefreshed(s.kind, count, nil)
	return nil
}

// Replace installs items fetched elsewhere (the base-data bulk load).
func (s *EntityStore) Replace(items []models.Record) {
	s.mu.Lock()
	s.setLocked(items)
	count := len(s.items)
	s.mu.Unlock()

	s.bus.PublishStoreRefreshed(s.kind, count, nil)
}

func (s *EntityStore) setLocked(items []models.Record) {
	s.items = models.CloneRecords(items)
	if s.items == nil {
		s.items = []models.Record{}
	}
	models.SortRecords(s.items)
	s.lastErr = nil
	s.lastRefreshed = time.Now()
}

// Loading reports whether a Refresh is in flight.
func (s *EntityStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the error of the most recent failed Refresh, or nil
// once a later refresh succeeded.
func (s *EntityStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// LastRefreshed returns when the items were last replaced. Zero means never.
func (s *EntityStore) LastRefreshed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefreshed
}

// RefreshCount returns how many times Refresh has been called.
func (s *EntityStore) RefreshCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshCount
}

// Source is what the registry needs from the API client.
type Source interface {
	Lister
	GetBaseData(ctx context.Context) (map[models.Kind][]models.Record, error)
}

// Registry holds one store per entity kind.
type Registry struct {
	source Source
	stores map[models.Kind]*EntityStore
}

// NewRegistry creates a store for every kind in models.AllKinds.
func NewRegistry(source Source, bus *events.EventBus) *Registry {
	r := &Registry{
		source: source,
		stores: make(map[models.Kind]*EntityStore, len(models.AllKinds)),
	}
	for _, kind := range models.AllKinds {
		r.stores[kind] = NewEntityStore(kind, source, bus)
	}
	return r
}

// Get returns the store of kind, or nil for an unknown kind.
func (r *Registry) Get(kind models.Kind) *EntityStore {
	return r.stores[kind]
}

// RefreshAll loads the definition lists through the base-data endpoint and
// then fetches every kind that payload did not cover (projects at least).
// Failures of individual kinds are joined; the others still load.
func (r *Registry) RefreshAll(ctx context.Context) error {
	covered := make(map[models.Kind]bool)
	var errs []error

	base, err := r.source.GetBaseData(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	for kind, items := range base {
		if st := r.stores[kind]; st != nil {
			st.Replace(items)
			covered[kind] = true
		}
	}

	for _, kind := range models.AllKinds {
		if covered[kind] {
			continue
		}
		if err := r.stores[kind].Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
