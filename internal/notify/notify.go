// Package notify delivers new alerts to external channels.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// Notifier delivers one alert.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, alert dashboard.Alert) error
}

// DispatcherConfig holds configuration for a Dispatcher.
type DispatcherConfig struct {
	Store     *dashboard.Store
	Notifiers []Notifier
	Logger    zerolog.Logger
	// Timeout bounds each delivery. Default: 10 seconds.
	Timeout time.Duration
	// QueueSize bounds pending alerts. Default: 64.
	QueueSize int
}

// Dispatcher forwards newly added alerts to every notifier while the
// notifications setting is on.
type Dispatcher struct {
	store     *dashboard.Store
	notifiers []Notifier
	log       zerolog.Logger
	timeout   time.Duration
	queue     chan dashboard.Alert
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	return &Dispatcher{
		store:     cfg.Store,
		notifiers: cfg.Notifiers,
		log:       cfg.Logger,
		timeout:   timeout,
		queue:     make(chan dashboard.Alert, size),
	}
}

// Start subscribes to store events. Deliveries happen on Run.
func (d *Dispatcher) Start() {
	d.store.Subscribe(d.handle)
}

func (d *Dispatcher) handle(ev dashboard.Event) {
	if ev.Slice != dashboard.SliceAlerts || ev.Op != dashboard.OpAdd || ev.Alert == nil {
		return
	}
	if !d.store.Settings().Notifications {
		return
	}

	select {
	case d.queue <- *ev.Alert:
	default:
		d.log.Warn().Int64("alert_id", ev.Alert.ID).Msg("notification queue full, dropping alert")
	}
}

// Run delivers queued alerts until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-d.queue:
			d.deliver(ctx, alert)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, alert dashboard.Alert) {
	for _, n := range d.notifiers {
		nctx, cancel := context.WithTimeout(ctx, d.timeout)
		err := n.Notify(nctx, alert)
		cancel()

		if err != nil {
			d.log.Error().
				Err(err).
				Str("notifier", n.Name()).
				Int64("alert_id", alert.ID).
				Msg("failed to deliver alert")
			continue
		}
		d.log.Debug().
			Str("notifier", n.Name()).
			Int64("alert_id", alert.ID).
			Msg("alert delivered")
	}
}

// FormatAlert renders an alert as a short plain-text message.
func FormatAlert(a dashboard.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(string(a.Type)), a.Title)
	if a.Message != "" {
		fmt.Fprintf(&b, "\n%s", a.Message)
	}
	if a.ServiceID != nil {
		fmt.Fprintf(&b, "\nService: %s", *a.ServiceID)
	}
	fmt.Fprintf(&b, "\n%s", a.Timestamp.UTC().Format(time.RFC3339))
	return b.String()
}

// LogNotifier writes alerts to the log.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a log notifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Name returns "log".
func (n *LogNotifier) Name() string { return "log" }

// Notify logs the alert at warn level.
func (n *LogNotifier) Notify(_ context.Context, a dashboard.Alert) error {
	ev := n.log.Warn().
		Int64("alert_id", a.ID).
		Str("type", string(a.Type)).
		Str("title", a.Title)
	if a.ServiceID != nil {
		ev = ev.Str("service_id", *a.ServiceID)
	}
	ev.Msg(a.Message)
	return nil
}
