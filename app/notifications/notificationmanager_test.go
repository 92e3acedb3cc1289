package notifications

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNotifyDeliversPerType(t *testing.T) {
	manager := NewManager()
	chainListener := manager.Subscribe(EventVirtualChainChanged)
	stallListener := manager.Subscribe(EventSyncStalled, EventPeerBanned)
	require.Equal(t, 2, manager.ListenerCount())

	chainChanged := &externalapi.VirtualChainChanged{
		Added: []*externalapi.DomainHash{externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})},
	}
	require.NoError(t, manager.Notify(chainChanged))
	require.NoError(t, manager.Notify(&PeerBanned{Address: "peer-1", Reason: "bad header"}))

	require.Len(t, chainListener.Channel(), 1)
	require.Equal(t, Event(chainChanged), <-chainListener.Channel())

	require.Len(t, stallListener.Channel(), 1)
	peerBanned, ok := (<-stallListener.Channel()).(*PeerBanned)
	require.True(t, ok)
	require.Equal(t, "peer-1", peerBanned.Address)
}

func TestNotifyDropsWhenListenerIsFull(t *testing.T) {
	manager := NewManager()
	listener := manager.SubscribeWithCapacity(2, EventSyncStalled)

	for i := 0; i < 5; i++ {
		require.NoError(t, manager.Notify(&SyncStalled{Reason: "no peers"}))
	}
	require.Len(t, listener.Channel(), 2)
}

func TestNotifyUnknownEvent(t *testing.T) {
	manager := NewManager()
	err := manager.Notify("not an event")
	require.Error(t, err)
}

func TestUnsubscribe(t *testing.T) {
	manager := NewManager()
	listener := manager.Subscribe(EventBlockAdded)

	require.NoError(t, manager.Unsubscribe(listener.ID()))
	_, isOpen := <-listener.Channel()
	require.False(t, isOpen)
	require.Equal(t, 0, manager.ListenerCount())

	require.NoError(t, manager.Notify(&externalapi.BlockAdded{}))

	err := manager.Unsubscribe(uuid.New())
	require.True(t, errors.Is(err, ErrListenerNotFound))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		event    Event
		expected EventType
	}{
		{&externalapi.BlockAdded{}, EventBlockAdded},
		{&externalapi.VirtualChainChanged{}, EventVirtualChainChanged},
		{&externalapi.PruningPointMoved{}, EventPruningPointMoved},
		{&externalapi.FinalityConflict{}, EventFinalityConflict},
		{&externalapi.FinalityConflictResolved{}, EventFinalityConflictResolved},
		{&externalapi.UTXOSetOverride{}, EventUTXOSetOverride},
		{&SyncStalled{}, EventSyncStalled},
		{&PeerBanned{}, EventPeerBanned},
	}
	for _, test := range tests {
		eventType, err := TypeOf(test.event)
		require.NoError(t, err)
		require.Equal(t, test.expected, eventType, "%T", test.event)
	}
}
