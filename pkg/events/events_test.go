package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-dev/gatehouse/pkg/rbac"
)

// recorder collects dispatched events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func TestNotifier_Dispatch(t *testing.T) {
	n := NewNotifier(NotifierConfig{})
	defer n.Close()

	rec := &recorder{}
	n.Subscribe(rec.handle)

	err := n.Publish(NewPermissionsChanged(PermissionsChanged{PrincipalID: "u-1"}))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	got := rec.snapshot()[0]
	assert.Equal(t, TypePermissionsChanged, got.Type)
	assert.NotEmpty(t, got.ID, "publish must stamp an envelope id")
	assert.False(t, got.Timestamp.IsZero())
	require.NotNil(t, got.PermissionsChanged)
	assert.Equal(t, "u-1", got.PermissionsChanged.PrincipalID)
	assert.Equal(t, "u-1", got.PrincipalID())
}

func TestNotifier_OrderPreserved(t *testing.T) {
	n := NewNotifier(NotifierConfig{Buffer: 128})
	rec := &recorder{}
	n.Subscribe(rec.handle)

	ids := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		evt := NewPermissionsChanged(PermissionsChanged{PrincipalID: "u-1"})
		ids = append(ids, evt.ID)
		require.NoError(t, n.Publish(evt))
	}
	n.Close() // drains the queue before returning

	got := rec.snapshot()
	require.Len(t, got, 50)
	for i, evt := range got {
		assert.Equal(t, ids[i], evt.ID, "event %d out of order", i)
	}
}

func TestNotifier_PanickingHandlerIsIsolated(t *testing.T) {
	n := NewNotifier(NotifierConfig{})
	rec := &recorder{}

	n.Subscribe(func(Event) { panic("boom") })
	n.Subscribe(rec.handle)

	require.NoError(t, n.Publish(NewTenantChanged(TenantChanged{PrincipalID: "u-1"})))

	assert.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond, "handler after the panicking one must still run")
	n.Close()
}

func TestNotifier_PublishAfterClose(t *testing.T) {
	n := NewNotifier(NotifierConfig{})
	n.Close()
	n.Close() // idempotent

	err := n.Publish(NewPermissionsChanged(PermissionsChanged{PrincipalID: "u-1"}))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNotifier_NilHandlerIgnored(t *testing.T) {
	n := NewNotifier(NotifierConfig{})
	defer n.Close()

	n.Subscribe(nil)
	assert.NoError(t, n.Publish(NewPermissionsChanged(PermissionsChanged{PrincipalID: "u-1"})))
}

// fakeInvalidator records invalidation calls in order.
type fakeInvalidator struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeInvalidator) Invalidate(principalID, tenantID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "invalidate:"+principalID+"|"+tenantID)
}

func (f *fakeInvalidator) EffectivePermissions(tenantID string) []rbac.Permission {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "effective:"+tenantID)
	return nil
}

func (f *fakeInvalidator) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestBindEvaluator_PermissionsChanged(t *testing.T) {
	n := NewNotifier(NotifierConfig{})
	inv := &fakeInvalidator{}
	BindEvaluator(n, inv, nil)

	require.NoError(t, n.Publish(NewPermissionsChanged(PermissionsChanged{PrincipalID: "u-1"})))
	n.Close()

	assert.Equal(t, []string{"invalidate:u-1|", "effective:"}, inv.snapshot(),
		"invalidation must precede the recompute")
}

func TestBindEvaluator_TenantChanged(t *testing.T) {
	n := NewNotifier(NotifierConfig{})
	inv := &fakeInvalidator{}
	BindEvaluator(n, inv, nil)

	require.NoError(t, n.Publish(NewTenantChanged(TenantChanged{
		PrincipalID: "u-1",
		OldTenantID: "t1",
		NewTenantID: "t2",
	})))
	n.Close()

	assert.Equal(t, []string{"invalidate:u-1|t1", "effective:t2"}, inv.snapshot(),
		"old scope is dropped before recomputing under the new tenant")
}

func TestBindEvaluator_NilPayloadIgnored(t *testing.T) {
	n := NewNotifier(NotifierConfig{})
	inv := &fakeInvalidator{}
	BindEvaluator(n, inv, nil)

	require.NoError(t, n.Publish(Event{Type: TypePermissionsChanged}))
	n.Close()

	assert.Empty(t, inv.snapshot())
}

func TestBindEvaluator_EndToEnd(t *testing.T) {
	principal := &rbac.Principal{
		ID: "u-1",
		Roles: []rbac.RoleGrant{{
			Role:        "manager",
			TenantID:    "t1",
			Permissions: []rbac.Permission{"users:read"},
		}},
	}
	cfg := rbac.DefaultConfig()
	cfg.SweepInterval = 0
	eval := rbac.NewEvaluator(principal, cfg)
	defer eval.Close()

	n := NewNotifier(NotifierConfig{})
	BindEvaluator(n, eval, nil)

	require.True(t, eval.HasPermission("users:read", "t1"))

	require.NoError(t, n.Publish(NewPermissionsChanged(PermissionsChanged{PrincipalID: "u-1"})))
	n.Close()

	before := eval.Stats()
	eval.HasPermission("users:read", "t1")
	after := eval.Stats()
	assert.Equal(t, before.Hits, after.Hits, "cached result must not survive the change event")
}
