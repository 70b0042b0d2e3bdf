package dashboard

import (
	"slices"
	"sync"
	"time"
)

// Slice names the part of the store touched by a mutation.
type Slice string

const (
	SliceServices Slice = "services"
	SliceMetrics  Slice = "metrics"
	SliceSettings Slice = "settings"
	SliceUI       Slice = "ui"
	SliceAlerts   Slice = "alerts"
)

// Op names the kind of mutation.
type Op string

const (
	OpSet     Op = "set"
	OpAdd     Op = "add"
	OpUpdate  Op = "update"
	OpRemove  Op = "remove"
	OpClear   Op = "clear"
	OpAck     Op = "ack"
	OpDemo    Op = "demo"
	OpRestore Op = "restore"
)

// Event is emitted to subscribers after every mutation.
type Event struct {
	Slice Slice
	Op    Op
	// Alert is set for alert additions and acknowledgements.
	Alert *Alert
}

// Subscriber receives store events. It runs on the mutating goroutine after
// the store lock has been released, so it may read from the store.
type Subscriber func(Event)

// DemoSource produces the demo data set loaded by InitializeDemoData.
type DemoSource interface {
	DemoServices() []Service
	DemoMetrics() MetricsBundle
	DemoAlerts() []Alert
}

// Retention bounds the metrics series kept by UpdateMetrics.
type Retention struct {
	// MaxPoints caps each series. Zero disables the cap.
	MaxPoints int
	// MaxAge drops points older than now-MaxAge. Zero disables the cutoff.
	MaxAge time.Duration
}

// DefaultRetention keeps a week of hourly points with headroom for
// auto-refresh samples.
func DefaultRetention() Retention {
	return Retention{
		MaxPoints: 1000,
		MaxAge:    7 * 24 * time.Hour,
	}
}

// StoreConfig holds configuration for a Store.
type StoreConfig struct {
	Retention Retention
	Demo      DemoSource
	Now       func() time.Time
}

// Store is the dashboard state container. All reads return copies.
type Store struct {
	mu               sync.RWMutex
	services         []Service
	metrics          MetricsBundle
	settings         Settings
	sidebarCollapsed bool
	alerts           []Alert
	lastAlertID      int64

	retention Retention
	demo      DemoSource
	now       func() time.Time

	subMu       sync.RWMutex
	subscribers []Subscriber
}

// NewStore creates an empty store with default settings.
func NewStore(cfg StoreConfig) *Store {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		services: []Service{},
		metrics: MetricsBundle{
			CPU:     Series{},
			Memory:  Series{},
			Network: Series{},
			Disk:    Series{},
		},
		settings:  DefaultSettings(),
		alerts:    []Alert{},
		retention: cfg.Retention,
		demo:      cfg.Demo,
		now:       now,
	}
}

// Subscribe registers fn for every subsequent mutation.
func (s *Store) Subscribe(fn Subscriber) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) emit(events ...Event) {
	s.subMu.RLock()
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.RUnlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// Services

// Services returns the service collection in insertion order.
func (s *Store) Services() []Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyServices(s.services)
}

// Service returns the first service with the given id.
func (s *Store) Service(id string) (Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, svc := range s.services {
		if svc.ID == id {
			return copyService(svc), nil
		}
	}
	return Service{}, ErrServiceNotFound
}

// SetServices replaces the service collection. Duplicate ids are kept as given.
func (s *Store) SetServices(services []Service) {
	s.mu.Lock()
	s.services = copyServices(services)
	s.mu.Unlock()

	s.emit(Event{Slice: SliceServices, Op: OpSet})
}

// UpdateService merges patch into every service with the given id and returns
// the first updated record. Other records are left untouched.
func (s *Store) UpdateService(id string, patch ServicePatch) (Service, error) {
	if err := patch.Validate(); err != nil {
		return Service{}, err
	}

	s.mu.Lock()
	var (
		updated Service
		found   bool
	)
	for i := range s.services {
		if s.services[i].ID != id {
			continue
		}
		patch.apply(&s.services[i])
		if !found {
			updated = copyService(s.services[i])
			found = true
		}
	}
	s.mu.Unlock()

	if !found {
		return Service{}, ErrServiceNotFound
	}

	s.emit(Event{Slice: SliceServices, Op: OpUpdate})
	return updated, nil
}

// AddService appends a service without checking for an id collision.
func (s *Store) AddService(svc Service) {
	s.mu.Lock()
	s.services = append(s.services, copyService(svc))
	s.mu.Unlock()

	s.emit(Event{Slice: SliceServices, Op: OpAdd})
}

// CreateService appends a service unless its id is already taken.
func (s *Store) CreateService(svc Service) error {
	s.mu.Lock()
	for _, existing := range s.services {
		if existing.ID == svc.ID {
			s.mu.Unlock()
			return ErrServiceExists
		}
	}
	s.services = append(s.services, copyService(svc))
	s.mu.Unlock()

	s.emit(Event{Slice: SliceServices, Op: OpAdd})
	return nil
}

// RemoveService removes every service with the given id.
func (s *Store) RemoveService(id string) error {
	s.mu.Lock()
	kept := s.services[:0:0]
	for _, svc := range s.services {
		if svc.ID != id {
			kept = append(kept, svc)
		}
	}
	removed := len(kept) != len(s.services)
	if removed {
		s.services = kept
	}
	s.mu.Unlock()

	if !removed {
		return ErrServiceNotFound
	}

	s.emit(Event{Slice: SliceServices, Op: OpRemove})
	return nil
}

// Metrics

// Metrics returns the current metrics bundle.
func (s *Store) Metrics() MetricsBundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyBundle(s.metrics)
}

// SetMetrics replaces the metrics bundle.
func (s *Store) SetMetrics(bundle MetricsBundle) {
	s.mu.Lock()
	s.metrics = copyBundle(bundle)
	s.mu.Unlock()

	s.emit(Event{Slice: SliceMetrics, Op: OpSet})
}

// UpdateMetrics appends each delta series to the matching series and then
// applies the retention window. Series stay ascending by timestamp even when
// a delta arrives out of order.
func (s *Store) UpdateMetrics(delta MetricsBundle) {
	s.mu.Lock()
	cutoff := time.Time{}
	if s.retention.MaxAge > 0 {
		cutoff = s.now().Add(-s.retention.MaxAge)
	}
	s.metrics = MetricsBundle{
		CPU:     s.retain(appendSeries(s.metrics.CPU, delta.CPU), cutoff),
		Memory:  s.retain(appendSeries(s.metrics.Memory, delta.Memory), cutoff),
		Network: s.retain(appendSeries(s.metrics.Network, delta.Network), cutoff),
		Disk:    s.retain(appendSeries(s.metrics.Disk, delta.Disk), cutoff),
	}
	s.mu.Unlock()

	s.emit(Event{Slice: SliceMetrics, Op: OpUpdate})
}

// retain drops every point older than cutoff, restores timestamp order and
// keeps at most MaxPoints of the newest points.
func (s *Store) retain(series Series, cutoff time.Time) Series {
	out := make(Series, 0, len(series))
	for _, p := range series {
		if cutoff.IsZero() || !p.Timestamp.Before(cutoff) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b Point) int { return a.Timestamp.Compare(b.Timestamp) })
	if limit := s.retention.MaxPoints; limit > 0 && len(out) > limit {
		out = slices.Clone(out[len(out)-limit:])
	}
	return out
}

// Settings and UI

// Settings returns the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings shallow-merges patch into the settings.
func (s *Store) UpdateSettings(patch SettingsPatch) (Settings, error) {
	if err := patch.Validate(); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	if patch.Theme != nil {
		s.settings.Theme = *patch.Theme
	}
	if patch.Notifications != nil {
		s.settings.Notifications = *patch.Notifications
	}
	if patch.AutoRefresh != nil {
		s.settings.AutoRefresh = *patch.AutoRefresh
	}
	if patch.RefreshInterval != nil {
		s.settings.RefreshInterval = *patch.RefreshInterval
	}
	settings := s.settings
	s.mu.Unlock()

	s.emit(Event{Slice: SliceSettings, Op: OpUpdate})
	return settings, nil
}

// SidebarCollapsed reports the sidebar flag.
func (s *Store) SidebarCollapsed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sidebarCollapsed
}

// ToggleSidebar flips the sidebar flag and returns the new value.
func (s *Store) ToggleSidebar() bool {
	s.mu.Lock()
	s.sidebarCollapsed = !s.sidebarCollapsed
	collapsed := s.sidebarCollapsed
	s.mu.Unlock()

	s.emit(Event{Slice: SliceUI, Op: OpUpdate})
	return collapsed
}

// SetSidebarCollapsed sets the sidebar flag.
func (s *Store) SetSidebarCollapsed(collapsed bool) {
	s.mu.Lock()
	s.sidebarCollapsed = collapsed
	s.mu.Unlock()

	s.emit(Event{Slice: SliceUI, Op: OpSet})
}

// Preferences returns the persisted slice of the store.
func (s *Store) Preferences() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Preferences{
		Settings:         s.settings,
		SidebarCollapsed: s.sidebarCollapsed,
	}
}

// RestorePreferences loads previously persisted preferences. Settings fields
// that fail validation fall back to their defaults.
func (s *Store) RestorePreferences(p Preferences) {
	s.mu.Lock()
	s.settings = p.Settings.sanitized()
	s.sidebarCollapsed = p.SidebarCollapsed
	s.mu.Unlock()

	s.emit(
		Event{Slice: SliceSettings, Op: OpRestore},
		Event{Slice: SliceUI, Op: OpRestore},
	)
}

// Alerts

// Alerts returns the alert collection in insertion order.
func (s *Store) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAlerts(s.alerts)
}

// AddAlert assigns an id to the alert and appends it. Ids are strictly
// increasing and track the wall clock in milliseconds when it moves forward.
func (s *Store) AddAlert(in NewAlert) Alert {
	s.mu.Lock()
	now := s.now()
	id := s.lastAlertID + 1
	if ms := now.UnixMilli(); ms > id {
		id = ms
	}
	s.lastAlertID = id

	ts := in.Timestamp
	if ts.IsZero() {
		ts = now
	}
	alert := Alert{
		ID:           id,
		Type:         in.Type,
		Title:        in.Title,
		Message:      in.Message,
		Timestamp:    ts,
		Acknowledged: in.Acknowledged,
		ServiceID:    copyStringPtr(in.ServiceID),
	}
	s.alerts = append(s.alerts, alert)
	s.mu.Unlock()

	out := copyAlert(alert)
	s.emit(Event{Slice: SliceAlerts, Op: OpAdd, Alert: &out})
	return copyAlert(alert)
}

// AcknowledgeAlert marks the alert with the given id as acknowledged.
func (s *Store) AcknowledgeAlert(id int64) (Alert, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Acknowledged = true
			idx = i
			break
		}
	}
	var alert Alert
	if idx >= 0 {
		alert = copyAlert(s.alerts[idx])
	}
	s.mu.Unlock()

	if idx < 0 {
		return Alert{}, ErrAlertNotFound
	}

	out := copyAlert(alert)
	s.emit(Event{Slice: SliceAlerts, Op: OpAck, Alert: &out})
	return alert, nil
}

// RemoveAlert removes every alert with the given id.
func (s *Store) RemoveAlert(id int64) error {
	s.mu.Lock()
	kept := s.alerts[:0:0]
	for _, a := range s.alerts {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	removed := len(kept) != len(s.alerts)
	if removed {
		s.alerts = kept
	}
	s.mu.Unlock()

	if !removed {
		return ErrAlertNotFound
	}

	s.emit(Event{Slice: SliceAlerts, Op: OpRemove})
	return nil
}

// ClearAlerts empties the alert collection.
func (s *Store) ClearAlerts() {
	s.mu.Lock()
	s.alerts = []Alert{}
	s.mu.Unlock()

	s.emit(Event{Slice: SliceAlerts, Op: OpClear})
}

// InitializeDemoData overwrites services, metrics and alerts with a fresh demo
// set. The metrics bundle is regenerated on every call.
func (s *Store) InitializeDemoData() {
	if s.demo == nil {
		return
	}

	services := s.demo.DemoServices()
	metrics := s.demo.DemoMetrics()
	alerts := s.demo.DemoAlerts()

	s.mu.Lock()
	s.services = copyServices(services)
	s.metrics = copyBundle(metrics)
	s.alerts = copyAlerts(alerts)
	for _, a := range alerts {
		if a.ID > s.lastAlertID {
			s.lastAlertID = a.ID
		}
	}
	s.mu.Unlock()

	s.emit(
		Event{Slice: SliceServices, Op: OpDemo},
		Event{Slice: SliceMetrics, Op: OpDemo},
		Event{Slice: SliceAlerts, Op: OpDemo},
	)
}

func appendSeries(base, delta Series) Series {
	out := make(Series, 0, len(base)+len(delta))
	out = append(out, base...)
	return append(out, delta...)
}

func copyService(s Service) Service {
	if s.Dependencies != nil {
		s.Dependencies = append([]string(nil), s.Dependencies...)
	}
	return s
}

func copyServices(in []Service) []Service {
	out := make([]Service, len(in))
	for i, svc := range in {
		out[i] = copyService(svc)
	}
	return out
}

func copySeries(in Series) Series {
	out := make(Series, len(in))
	copy(out, in)
	return out
}

func copyBundle(b MetricsBundle) MetricsBundle {
	return MetricsBundle{
		CPU:     copySeries(b.CPU),
		Memory:  copySeries(b.Memory),
		Network: copySeries(b.Network),
		Disk:    copySeries(b.Disk),
	}
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyAlert(a Alert) Alert {
	a.ServiceID = copyStringPtr(a.ServiceID)
	return a
}

func copyAlerts(in []Alert) []Alert {
	out := make([]Alert, len(in))
	for i, a := range in {
		out[i] = copyAlert(a)
	}
	return out
}
