package events

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-dev/gatehouse/pkg/observability"
)

// Type identifies the event variants.
type Type string

const (
	TypePermissionsChanged Type = "permissions.changed"
	TypeTenantChanged      Type = "tenant.changed"
)

// PermissionsChanged signals that a principal's role grants were modified.
type PermissionsChanged struct {
	PrincipalID    string   `json:"principal_id"`
	OldPermissions []string `json:"old_permissions,omitempty"`
	NewPermissions []string `json:"new_permissions,omitempty"`
}

// TenantChanged signals that a principal switched its active tenant.
type TenantChanged struct {
	PrincipalID string `json:"principal_id"`
	OldTenantID string `json:"old_tenant_id,omitempty"`
	NewTenantID string `json:"new_tenant_id,omitempty"`
}

// Event is the envelope put on the wire. Exactly one payload field is set,
// matching Type; the variants form a closed set.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// Origin identifies the bridge that first forwarded the event, so that
	// cross-instance fan-out does not echo events back to their source.
	Origin string `json:"origin,omitempty"`

	PermissionsChanged *PermissionsChanged `json:"permissions_changed,omitempty"`
	TenantChanged      *TenantChanged      `json:"tenant_changed,omitempty"`
}

// NewPermissionsChanged builds a permissions-changed event envelope.
func NewPermissionsChanged(change PermissionsChanged) Event {
	return Event{
		ID:                 uuid.NewString(),
		Type:               TypePermissionsChanged,
		Timestamp:          time.Now().UTC(),
		PermissionsChanged: &change,
	}
}

// NewTenantChanged builds a tenant-changed event envelope.
func NewTenantChanged(change TenantChanged) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          TypeTenantChanged,
		Timestamp:     time.Now().UTC(),
		TenantChanged: &change,
	}
}

// PrincipalID returns the principal the event concerns, or "".
func (e Event) PrincipalID() string {
	switch {
	case e.PermissionsChanged != nil:
		return e.PermissionsChanged.PrincipalID
	case e.TenantChanged != nil:
		return e.TenantChanged.PrincipalID
	default:
		return ""
	}
}

// ErrClosed is returned by Publish after the notifier has been closed.
var ErrClosed = errors.New("events: notifier closed")

// Handler receives dispatched events. Handlers run on the dispatch goroutine;
// long-running work belongs elsewhere.
type Handler func(Event)

// NotifierConfig holds notifier construction options.
type NotifierConfig struct {
	// Buffer is the publish queue depth. Publish blocks once it is full,
	// preserving event order instead of dropping.
	Buffer  int
	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// Notifier fans events out to subscribers from a single dispatch goroutine.
type Notifier struct {
	mu       sync.RWMutex
	handlers []Handler

	ch        chan Event
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once

	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewNotifier creates a notifier and starts its dispatch goroutine.
func NewNotifier(cfg NotifierConfig) *Notifier {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	n := &Notifier{
		ch:      make(chan Event, cfg.Buffer),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		logger:  logger,
		metrics: cfg.Metrics,
	}
	go n.loop()
	return n
}

// Subscribe registers a handler for all subsequent events.
func (n *Notifier) Subscribe(h Handler) {
	if h == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, h)
}

// Publish enqueues an event for dispatch, filling in the envelope id and
// timestamp when absent. It blocks when the queue is full and returns
// ErrClosed once the notifier is shut down. Delivery is best-effort during
// shutdown: an event accepted while Close is draining may not be dispatched.
func (n *Notifier) Publish(evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	select {
	case <-n.stopCh:
		return ErrClosed
	default:
	}
	select {
	case n.ch <- evt:
		return nil
	case <-n.stopCh:
		return ErrClosed
	}
}

// Close stops dispatch after draining queued events. Idempotent.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.stopCh)
	})
	<-n.doneCh
}

func (n *Notifier) loop() {
	defer close(n.doneCh)
	for {
		select {
		case evt := <-n.ch:
			n.dispatch(evt)
		case <-n.stopCh:
			for {
				select {
				case evt := <-n.ch:
					n.dispatch(evt)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) dispatch(evt Event) {
	if n.metrics != nil {
		n.metrics.ObserveEvent(string(evt.Type))
	}
	n.mu.RLock()
	handlers := make([]Handler, len(n.handlers))
	copy(handlers, n.handlers)
	n.mu.RUnlock()

	for _, h := range handlers {
		n.call(h, evt)
	}
}

func (n *Notifier) call(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.WithField("event_id", evt.ID).
				WithField("event_type", string(evt.Type)).
				Errorf("event handler panicked: %v", r)
		}
	}()
	h(evt)
}
