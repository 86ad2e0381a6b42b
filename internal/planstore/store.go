package planstore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/google/uuid"
)

// Entry is one generated plan held for download and later edits.
type Entry struct {
	mu sync.Mutex

	ID          string
	Filenames   []string
	SourceHash  string
	Days        int
	HoursPerDay float64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	plan *plan.StudyPlan
}

// NewEntry wraps p under a fresh random ID.
func NewEntry(p *plan.StudyPlan, filenames []string, sourceText string, days int, hoursPerDay float64) *Entry {
	now := time.Now()
	return &Entry{
		ID:          uuid.NewString(),
		Filenames:   filenames,
		SourceHash:  ContentHashHex([]byte(sourceText)),
		Days:        days,
		HoursPerDay: hoursPerDay,
		CreatedAt:   now,
		UpdatedAt:   now,
		plan:        p.Clone(),
	}
}

// Plan returns a copy of the current plan.
func (e *Entry) Plan() *plan.StudyPlan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan.Clone()
}

// SetPlan replaces the stored plan with a copy of p.
func (e *Entry) SetPlan(p *plan.StudyPlan) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plan = p.Clone()
	e.UpdatedAt = time.Now()
}

// expiresAt is ttl past the later of the last update and the end of the
// plan's final day, counted from creation.
func (e *Entry) expiresAt(ttl time.Duration) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	last := e.CreatedAt.AddDate(0, 0, len(e.plan.Days))
	if e.UpdatedAt.After(last) {
		last = e.UpdatedAt
	}
	return last.Add(ttl)
}

// Snapshot is a JSON-safe summary of an entry.
type Snapshot struct {
	ID          string    `json:"plan_id"`
	Filenames   []string  `json:"filenames"`
	SourceHash  string    `json:"source_hash"`
	Days        int       `json:"days"`
	HoursPerDay float64   `json:"hours_per_day"`
	TotalHours  float64   `json:"total_hours"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the entry metadata.
func (e *Entry) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := e.Filenames
	if names == nil {
		names = []string{}
	}
	return Snapshot{
		ID:          e.ID,
		Filenames:   names,
		SourceHash:  e.SourceHash,
		Days:        e.Days,
		HoursPerDay: e.HoursPerDay,
		TotalHours:  e.plan.TotalHours(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// Store is a thread-safe in-memory plan registry with TTL eviction.
// Plans do not survive a restart.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
	retain  func(id string) bool
}

// Option customizes a Store.
type Option func(*Store)

// WithRetain keeps expired entries for which retain reports true, such as
// plans that still have reminders pending. retain must not call the Store.
func WithRetain(retain func(id string) bool) Option {
	return func(s *Store) { s.retain = retain }
}

func New(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*Entry),
		ttl:     ttl,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Put(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
}

// Get returns the entry for id, or nil.
func (s *Store) Get(id string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id]
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup removes finished entries and returns their IDs. An entry is
// finished once the TTL has passed since both its last update and the end
// of its plan, and the retain hook (if any) no longer holds it.
func (s *Store) Cleanup() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var evicted []string
	for id, e := range s.entries {
		if now.After(e.expiresAt(s.ttl)) {
			if s.retain != nil && s.retain(id) {
				continue
			}
			delete(s.entries, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Run calls Cleanup every interval until ctx is done. onEvict, if set,
// receives each evicted ID.
func (s *Store) Run(ctx context.Context, interval time.Duration, onEvict func(id string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range s.Cleanup() {
				if onEvict != nil {
					onEvict(id)
				}
			}
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
