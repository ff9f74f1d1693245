// Package session owns evaluator lifecycle across concurrent principals.
//
// The permission cache is private to one evaluator per principal; Manager is
// the registry that creates evaluators on first use, refreshes their
// snapshots, relays change events to the affected instance and tears
// everything down on shutdown.
package session

import (
	"sync"

	"github.com/gatehouse-dev/gatehouse/pkg/events"
	"github.com/gatehouse-dev/gatehouse/pkg/observability"
	"github.com/gatehouse-dev/gatehouse/pkg/rbac"
)

// Manager hands out one evaluator per principal id.
type Manager struct {
	mu     sync.Mutex
	evals  map[string]*rbac.Evaluator
	cfg    rbac.Config
	logger *observability.Logger
	closed bool
}

// NewManager creates a manager; every evaluator it creates shares the given
// configuration.
func NewManager(cfg rbac.Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Manager{
		evals:  make(map[string]*rbac.Evaluator),
		cfg:    cfg,
		logger: logger,
	}
}

// Evaluator returns the evaluator for the principal, creating it on first
// use. A changed snapshot (different role signature) is installed before the
// evaluator is returned, which invalidates the stale scope first. Returns nil
// for a nil principal or a closed manager: callers fail closed.
func (m *Manager) Evaluator(p *rbac.Principal) *rbac.Evaluator {
	if p == nil || p.ID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	eval, ok := m.evals[p.ID]
	if !ok {
		eval = rbac.NewEvaluator(p, m.cfg)
		m.evals[p.ID] = eval
		m.logger.WithPrincipal(p.ID).Debug("evaluator created")
		return eval
	}
	if current := eval.Principal(); current == nil || current.Signature() != p.Signature() {
		eval.SetPrincipal(p)
	}
	return eval
}

// Invalidate forwards an invalidation to the principal's evaluator, if one
// exists. Empty principal id invalidates every evaluator.
func (m *Manager) Invalidate(principalID, tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if principalID == "" {
		for _, eval := range m.evals {
			eval.Invalidate("", "")
		}
		return
	}
	if eval, ok := m.evals[principalID]; ok {
		eval.Invalidate(principalID, tenantID)
	}
}

// Bind subscribes the manager to a notifier so that change events reach the
// affected evaluator.
func (m *Manager) Bind(n *events.Notifier) {
	n.Subscribe(func(evt events.Event) {
		switch evt.Type {
		case events.TypePermissionsChanged:
			if change := evt.PermissionsChanged; change != nil {
				m.Invalidate(change.PrincipalID, "")
			}
		case events.TypeTenantChanged:
			if change := evt.TenantChanged; change != nil {
				m.Invalidate(change.PrincipalID, change.OldTenantID)
			}
		}
	})
}

// Close tears down every evaluator and refuses further use. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, eval := range m.evals {
		eval.Close()
		delete(m.evals, id)
	}
}
