package preferences

import (
	"context"
	"sync"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// InMemoryRepository is an in-memory implementation of Repository. It keeps
// the encoded documents so it behaves like the persistent backends.
type InMemoryRepository struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		docs: make(map[string][]byte),
	}
}

// Load returns the preferences stored under key.
func (r *InMemoryRepository) Load(_ context.Context, key string) (*dashboard.Preferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return Decode(doc)
}

// Save stores the preferences under key.
func (r *InMemoryRepository) Save(_ context.Context, key string, prefs *dashboard.Preferences) error {
	doc, err := Encode(prefs)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[key] = doc
	return nil
}

// Raw returns the stored document for key.
func (r *InMemoryRepository) Raw(key string) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[key]
	return doc, ok
}

// Ping always succeeds.
func (r *InMemoryRepository) Ping(context.Context) error {
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
