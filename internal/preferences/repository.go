// Package preferences persists the user's dashboard preferences (settings and
// sidebar state) across process restarts.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// StorageKey is the key the dashboard preferences are stored under.
const StorageKey = "dashboard-storage"

// ErrNotFound is returned when no preferences are stored under a key.
var ErrNotFound = errors.New("preferences not found")

// Repository defines the interface for preferences storage.
type Repository interface {
	// Load returns the preferences stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) (*dashboard.Preferences, error)

	// Save stores the preferences under key, replacing any previous value.
	Save(ctx context.Context, key string, prefs *dashboard.Preferences) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Encode returns the persisted document: a JSON object with exactly the
// settings and sidebarCollapsed fields.
func Encode(prefs *dashboard.Preferences) ([]byte, error) {
	data, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	return data, nil
}

// Decode parses a persisted document. Fields missing from the document keep
// their default values.
func Decode(data []byte) (*dashboard.Preferences, error) {
	prefs := dashboard.Preferences{Settings: dashboard.DefaultSettings()}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &prefs, nil
}
