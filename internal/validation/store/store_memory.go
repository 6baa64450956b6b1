package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"docval/internal/validation"
	"docval/pkg/platform/sentinel"
)

// InMemory keeps validation runs in process memory. Records are copied on the
// way in and out so callers cannot mutate stored state.
type InMemory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]validation.Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[uuid.UUID]validation.Record)}
}

func (s *InMemory) Save(_ context.Context, record *validation.Record) error {
	if record == nil {
		return fmt.Errorf("validation record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = cloneRecord(*record)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*validation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneRecord(record)
	return &out, nil
}

func cloneRecord(r validation.Record) validation.Record {
	incs := make([]validation.Inconsistency, len(r.Inconsistencies))
	for i, inc := range r.Inconsistencies {
		if inc.Values != nil {
			values := make(map[string]string, len(inc.Values))
			for k, v := range inc.Values {
				values[k] = v
			}
			inc.Values = values
		}
		incs[i] = inc
	}
	r.Inconsistencies = incs
	return r
}
