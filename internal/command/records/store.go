package records

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is an in-memory Repository. It is safe for concurrent use.
// Records are lost on restart.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
	now     func() time.Time
}

// NewStore creates an empty record store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// Create implements Repository.
func (s *Store) Create(ctx context.Context, rec *Record) (*Record, error) {
	if rec.Status != StatusValidated && rec.Status != StatusFailed {
		return nil, fmt.Errorf("Create: initial status %q: %w", rec.Status, ErrInvalidTransition)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *rec
	if recCopy.ID == "" {
		recCopy.ID = uuid.NewString()
	}
	if _, exists := s.records[recCopy.ID]; exists {
		return nil, fmt.Errorf("Create: record %s already exists", recCopy.ID)
	}
	recCopy.CreatedAt = s.now()
	if recCopy.Status == StatusFailed {
		completed := recCopy.CreatedAt
		recCopy.CompletedAt = &completed
	}

	s.records[recCopy.ID] = &recCopy
	s.order = append(s.order, recCopy.ID)

	out := recCopy
	return &out, nil
}

// Get implements Repository.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("Get: %s: %w", id, ErrNotFound)
	}

	recCopy := *rec
	return &recCopy, nil
}

// List implements Repository.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*Record{}
	for i := len(s.order) - 1; i >= 0; i-- {
		rec := s.records[s.order[i]]
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Action != "" && rec.Action != filter.Action {
			continue
		}

		recCopy := *rec
		result = append(result, &recCopy)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*Record{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Transition implements Repository.
func (s *Store) Transition(ctx context.Context, id string, status Status, message, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return fmt.Errorf("Transition: %s: %w", id, ErrNotFound)
	}
	if !CanTransition(rec.Status, status) {
		return fmt.Errorf("Transition: %s -> %s: %w", rec.Status, status, ErrInvalidTransition)
	}

	now := s.now()
	rec.Status = status
	switch status {
	case StatusExecuting:
		rec.StartedAt = &now
	case StatusCommitted, StatusFailed:
		rec.CompletedAt = &now
	}
	if message != "" {
		rec.Message = message
	}
	if errMsg != "" {
		rec.Error = errMsg
	}

	return nil
}

// Ensure Store implements Repository.
var _ Repository = (*Store)(nil)
