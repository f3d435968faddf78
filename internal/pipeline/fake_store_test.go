package pipeline_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/quake-match/internal/domain"
	"github.com/couchcryptid/quake-match/internal/pipeline"
)

// memStore is an in-memory stand-in for the Postgres store. It mirrors the
// SQL semantics: half-open window, earliest-then-lowest-id tie-break, unique
// event ids, and an atomic upsert keyed by detection id.
type memStore struct {
	mu         sync.Mutex
	events     map[string]domain.Event
	detections []domain.Detection
	matches    map[string]domain.Match

	recordErr error
	findErr   error
	upsertErr error
	writes    int
	opens     int
	closes    int
}

func newMemStore(detections ...domain.Detection) *memStore {
	return &memStore{
		events:     make(map[string]domain.Event),
		detections: detections,
		matches:    make(map[string]domain.Match),
	}
}

func (s *memStore) RecordEvent(_ context.Context, event domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	if _, ok := s.events[event.ID]; ok {
		return domain.NewError(domain.KindStore, "insert event", fmt.Errorf("%w: %s", domain.ErrDuplicateEvent, event.ID))
	}
	s.events[event.ID] = event
	s.writes++
	return nil
}

func (s *memStore) FindDetection(_ context.Context, start, end time.Time) (domain.Detection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return domain.Detection{}, false, s.findErr
	}
	var hits []domain.Detection
	for _, d := range s.detections {
		if !d.Time.Before(start) && d.Time.Before(end) {
			hits = append(hits, d)
		}
	}
	if len(hits) == 0 {
		return domain.Detection{}, false, nil
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].Time.Equal(hits[j].Time) {
			return hits[i].Time.Before(hits[j].Time)
		}
		return hits[i].ID < hits[j].ID
	})
	return hits[0], true, nil
}

func (s *memStore) UpsertMatch(_ context.Context, m domain.Match) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return false, s.upsertErr
	}
	s.writes++
	if existing, ok := s.matches[m.DetectionID]; ok {
		existing.EventID = m.EventID
		existing.MatchTime = m.MatchTime
		s.matches[m.DetectionID] = existing
		return false, nil
	}
	s.matches[m.DetectionID] = m
	return true, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// opener hands out the same store as every session.
func (s *memStore) opener(openErr error) pipeline.SessionOpener {
	return func(context.Context) (pipeline.Session, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.opens++
		if openErr != nil {
			return nil, openErr
		}
		return s, nil
	}
}

func (s *memStore) match(detectionID string) (domain.Match, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[detectionID]
	return m, ok
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
