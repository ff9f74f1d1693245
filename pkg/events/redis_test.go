package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBridgePair(t *testing.T) (*Notifier, *Notifier) {
	t.Helper()
	mr := miniredis.RunT(t)

	local := NewNotifier(NotifierConfig{})
	remote := NewNotifier(NotifierConfig{})
	t.Cleanup(local.Close)
	t.Cleanup(remote.Close)

	for _, n := range []*Notifier{local, remote} {
		bridge, err := NewBridge(BridgeConfig{Addr: mr.Addr()}, n)
		require.NoError(t, err)
		require.NoError(t, bridge.Start(context.Background()))
		t.Cleanup(func() { bridge.Close() })
	}
	return local, remote
}

func TestBridge_CrossInstanceDelivery(t *testing.T) {
	local, remote := newBridgePair(t)

	remoteRec := &recorder{}
	remote.Subscribe(remoteRec.handle)

	evt := NewTenantChanged(TenantChanged{PrincipalID: "u-1", OldTenantID: "t1", NewTenantID: "t2"})
	require.NoError(t, local.Publish(evt))

	require.Eventually(t, func() bool {
		return len(remoteRec.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond, "event should cross instances via pub/sub")

	got := remoteRec.snapshot()[0]
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, TypeTenantChanged, got.Type)
	assert.NotEmpty(t, got.Origin, "forwarded events carry the source bridge's origin")
	require.NotNil(t, got.TenantChanged)
	assert.Equal(t, "t2", got.TenantChanged.NewTenantID)
}

func TestBridge_NoSelfEcho(t *testing.T) {
	local, _ := newBridgePair(t)

	localRec := &recorder{}
	local.Subscribe(localRec.handle)

	require.NoError(t, local.Publish(NewPermissionsChanged(PermissionsChanged{PrincipalID: "u-1"})))

	require.Eventually(t, func() bool {
		return len(localRec.snapshot()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give the pub/sub round trip time to misbehave before asserting it didn't.
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, localRec.snapshot(), 1, "an instance must not see its own event twice")
}

func TestBridge_ForwardedEventsAreNotReforwarded(t *testing.T) {
	local, remote := newBridgePair(t)

	localRec := &recorder{}
	local.Subscribe(localRec.handle)
	remoteRec := &recorder{}
	remote.Subscribe(remoteRec.handle)

	require.NoError(t, local.Publish(NewPermissionsChanged(PermissionsChanged{PrincipalID: "u-1"})))

	require.Eventually(t, func() bool {
		return len(remoteRec.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The remote replay carries an origin, so the remote bridge must not
	// bounce it back onto the channel.
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, localRec.snapshot(), 1)
	assert.Len(t, remoteRec.snapshot(), 1)
}

func TestNewBridge_ConnectFailure(t *testing.T) {
	n := NewNotifier(NotifierConfig{})
	defer n.Close()

	_, err := NewBridge(BridgeConfig{Addr: "127.0.0.1:1"}, n)
	assert.Error(t, err)
}
