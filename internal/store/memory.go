package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/contractintel/contract-intel/internal/entity"
)

// MemoryStore keeps contracts in process memory. Records are deep-copied on
// the way in and out so callers can never mutate stored state in place.
type MemoryStore struct {
	mu        sync.RWMutex
	contracts map[uuid.UUID][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contracts: make(map[uuid.UUID][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, c *entity.Contract) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[c.ID] = b
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*entity.Contract, error) {
	s.mu.RLock()
	b, ok := s.contracts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var c entity.Contract
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*entity.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Contract, 0, len(s.contracts))
	for _, b := range s.contracts {
		var c entity.Contract
		if err := json.Unmarshal(b, &c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contracts[id]; !ok {
		return ErrNotFound
	}
	delete(s.contracts, id)
	return nil
}
