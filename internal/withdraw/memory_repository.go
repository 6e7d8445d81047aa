package withdraw

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Intent
}

// NewMemoryRepository constructs an in-memory intent repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Intent)}
}

func (r *memoryRepository) Create(_ context.Context, intent Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[intent.ID]; exists {
		return errors.New("intent exists")
	}
	r.storage[intent.ID] = intent
	return nil
}

func (r *memoryRepository) Update(_ context.Context, intent Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[intent.ID]; !exists {
		return errors.New("intent not found")
	}
	r.storage[intent.ID] = intent
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Intent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	intent, ok := r.storage[id]
	if !ok {
		return Intent{}, errors.New("intent not found")
	}
	return intent, nil
}
