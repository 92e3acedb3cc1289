package flowcontext

import (
	"testing"
	"time"

	"github.com/calico-network/calicod/app/notifications"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/dagconfig"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/netadapter"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/id"
	routerpkg "github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/jpillora/backoff"
	"github.com/stretchr/testify/require"
)

func newTestFlowContext(t *testing.T, peerCount int) (*FlowContext, []*peerpkg.Peer, func()) {
	remoteConfig := config.DefaultConfig()
	remoteConfig.Listeners = []string{t.Name() + "-remote"}
	remote, err := netadapter.NewNetAdapter(remoteConfig)
	require.NoError(t, err)
	remote.SetP2PRouterInitializer(func(*routerpkg.Router, *netadapter.NetConnection) {})
	require.NoError(t, remote.Start())

	localConfig := config.DefaultConfig()
	localConfig.Listeners = []string{t.Name() + "-local"}
	local, err := netadapter.NewNetAdapter(localConfig)
	require.NoError(t, err)
	connections := make(chan *netadapter.NetConnection, peerCount)
	local.SetP2PRouterInitializer(func(_ *routerpkg.Router, connection *netadapter.NetConnection) {
		connections <- connection
	})
	require.NoError(t, local.Start())

	flowContext := New(localConfig, nil, nil, local, nil, notifications.NewManager())
	flowContext.ibdRetryBackoff = &backoff.Backoff{Min: time.Millisecond, Max: time.Millisecond}

	peers := make([]*peerpkg.Peer, peerCount)
	for i := range peers {
		require.NoError(t, local.P2PConnect(remoteConfig.Listeners[0]))
		connection := <-connections
		peerID, err := id.GenerateID()
		require.NoError(t, err)
		connection.SetID(peerID)
		peers[i] = peerpkg.New(connection)
		require.NoError(t, flowContext.AddToPeers(peers[i]))
	}

	teardown := func() {
		flowContext.Close()
		require.NoError(t, local.Stop())
		require.NoError(t, remote.Stop())
	}
	return flowContext, peers, teardown
}

func relayBlock() *externalapi.DomainBlock {
	return dagconfig.SimnetParams.GenesisBlock
}

func requireIBDJob(t *testing.T, peer *peerpkg.Peer, expected *externalapi.DomainBlock) {
	select {
	case job := <-peer.IBDRequestChannel():
		require.Same(t, expected, job)
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected an IBD job to be posted to %s", peer)
	}
}

func TestOnIBDFailureRepostsToAnotherPeer(t *testing.T) {
	flowContext, peers, teardown := newTestFlowContext(t, 2)
	defer teardown()

	block := relayBlock()
	shouldDisconnect := flowContext.OnIBDFailure(peers[0], block, protocolerrors.New(false, "timeout"))
	require.False(t, shouldDisconnect)
	requireIBDJob(t, peers[1], block)
	require.Equal(t, 1, peers[0].IBDAttempts())
}

func TestOnIBDFailureBanningErrorStallsWithoutOtherPeers(t *testing.T) {
	flowContext, peers, teardown := newTestFlowContext(t, 1)
	defer teardown()

	listener := flowContext.NotificationManager().Subscribe(notifications.EventSyncStalled)

	block := relayBlock()
	shouldDisconnect := flowContext.OnIBDFailure(peers[0], block, protocolerrors.New(true, "header gap"))
	require.True(t, shouldDisconnect)

	select {
	case event := <-listener.Channel():
		syncStalled, ok := event.(*notifications.SyncStalled)
		require.True(t, ok)
		require.True(t, syncStalled.TargetHash.Equal(dagconfig.SimnetParams.GenesisHash))
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected a SyncStalled notification")
	}
}

func TestOnIBDFailureExhaustsAttempts(t *testing.T) {
	flowContext, peers, teardown := newTestFlowContext(t, 1)
	defer teardown()

	listener := flowContext.NotificationManager().Subscribe(notifications.EventSyncStalled)
	block := relayBlock()

	for attempt := 1; attempt < MaxIBDAttemptsPerPeer; attempt++ {
		shouldDisconnect := flowContext.OnIBDFailure(peers[0], block, protocolerrors.New(false, "timeout"))
		require.False(t, shouldDisconnect)
		requireIBDJob(t, peers[0], block)
	}

	shouldDisconnect := flowContext.OnIBDFailure(peers[0], block, protocolerrors.New(false, "timeout"))
	require.True(t, shouldDisconnect)
	select {
	case <-listener.Channel():
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected a SyncStalled notification")
	}

	flowContext.OnIBDSuccess(peers[0])
	require.Zero(t, peers[0].IBDAttempts())
}

func TestIBDRunningFlag(t *testing.T) {
	flowContext, peers, teardown := newTestFlowContext(t, 2)
	defer teardown()

	require.False(t, flowContext.IsIBDRunning())
	require.True(t, flowContext.TrySetIBDRunning(peers[0]))
	require.False(t, flowContext.TrySetIBDRunning(peers[1]))
	require.Same(t, peers[0], flowContext.IBDPeer())
	flowContext.UnsetIBDRunning()
	require.False(t, flowContext.IsIBDRunning())
	require.Nil(t, flowContext.IBDPeer())
}
