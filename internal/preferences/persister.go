package preferences

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// PersisterConfig holds configuration for a Persister.
type PersisterConfig struct {
	Repository Repository
	Store      *dashboard.Store
	Logger     zerolog.Logger
	// Key defaults to StorageKey.
	Key string
	// Timeout bounds each save. Defaults to 5 seconds.
	Timeout time.Duration
}

// Persister keeps the store's preferences in sync with a Repository.
type Persister struct {
	repo    Repository
	store   *dashboard.Store
	log     zerolog.Logger
	key     string
	timeout time.Duration

	// saveMu makes read-then-save atomic so the last save always carries
	// the newest preferences.
	saveMu sync.Mutex
}

// NewPersister creates a new persister.
func NewPersister(cfg PersisterConfig) *Persister {
	key := cfg.Key
	if key == "" {
		key = StorageKey
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Persister{
		repo:    cfg.Repository,
		store:   cfg.Store,
		log:     cfg.Logger,
		key:     key,
		timeout: timeout,
	}
}

// Restore loads saved preferences into the store. Missing preferences leave
// the store defaults in place.
func (p *Persister) Restore(ctx context.Context) error {
	prefs, err := p.repo.Load(ctx, p.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			p.log.Debug().Str("key", p.key).Msg("no saved preferences, using defaults")
			return nil
		}
		return fmt.Errorf("load preferences: %w", err)
	}

	p.store.RestorePreferences(*prefs)
	p.log.Info().
		Str("key", p.key).
		Str("theme", string(prefs.Settings.Theme)).
		Bool("sidebar_collapsed", prefs.SidebarCollapsed).
		Msg("preferences restored")
	return nil
}

// Start subscribes to settings and UI changes.
func (p *Persister) Start() {
	p.store.Subscribe(p.handle)
}

func (p *Persister) handle(ev dashboard.Event) {
	if ev.Slice != dashboard.SliceSettings && ev.Slice != dashboard.SliceUI {
		return
	}
	// Restored values are already persisted.
	if ev.Op == dashboard.OpRestore {
		return
	}

	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	prefs := p.store.Preferences()
	if err := p.repo.Save(ctx, p.key, &prefs); err != nil {
		p.log.Error().Err(err).Str("key", p.key).Msg("failed to save preferences")
	}
}
