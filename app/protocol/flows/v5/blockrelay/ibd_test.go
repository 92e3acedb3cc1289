package blockrelay_test

import (
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/notifications"
	"github.com/calico-network/calicod/app/protocol/flowcontext"
	"github.com/calico-network/calicod/app/protocol/flows/v5/blockrelay"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain/consensus"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/model/testapi"
	"github.com/calico-network/calicod/domain/consensus/utils/testutils"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/netadapter"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/id"
	routerpkg "github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/stretchr/testify/require"
)

type fakeDomain struct {
	testapi.TestConsensus
}

func (d fakeDomain) Consensus() externalapi.Consensus { return d }

func (d fakeDomain) StagingConsensus() externalapi.Consensus {
	panic("implement me")
}

func (d fakeDomain) InitStagingConsensus() error {
	panic("implement me")
}

func (d fakeDomain) InitStagingConsensusWithoutGenesis() error {
	panic("implement me")
}

func (d fakeDomain) CommitStagingConsensus() error {
	panic("implement me")
}

func (d fakeDomain) DeleteStagingConsensus() error {
	panic("implement me")
}

func (d fakeDomain) ConsensusEventsChannel() chan externalapi.ConsensusEvent {
	return nil
}

func newTestFlowContext(t *testing.T, consensusConfig *consensus.Config, domain fakeDomain,
	peerCount int) (*flowcontext.FlowContext, []*peerpkg.Peer, func()) {

	remoteConfig := config.DefaultConfig()
	remoteConfig.Listeners = []string{t.Name() + "-remote"}
	remote, err := netadapter.NewNetAdapter(remoteConfig)
	require.NoError(t, err)
	remote.SetP2PRouterInitializer(func(*routerpkg.Router, *netadapter.NetConnection) {})
	require.NoError(t, remote.Start())

	localConfig := config.DefaultConfig()
	localConfig.Listeners = []string{t.Name() + "-local"}
	localConfig.ActiveNetParams = &consensusConfig.Params
	local, err := netadapter.NewNetAdapter(localConfig)
	require.NoError(t, err)
	connections := make(chan *netadapter.NetConnection, peerCount)
	local.SetP2PRouterInitializer(func(_ *routerpkg.Router, connection *netadapter.NetConnection) {
		connections <- connection
	})
	require.NoError(t, local.Start())

	flowContext := flowcontext.New(localConfig, domain, nil, local, nil, notifications.NewManager())

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

func dequeueRequest(t *testing.T, route *routerpkg.Route) appmessage.Message {
	message, err := route.DequeueWithTimeout(10 * time.Second)
	require.NoError(t, err)
	return message
}

// TestIBDHeaderGap checks that a syncer that leaves a gap in the headers it
// sends gets a banning error, and that the IBD job moves to another peer.
func TestIBDHeaderGap(t *testing.T) {
	consensusConfig := testutils.SimnetConfig()
	factory := consensus.NewFactory()

	tcSyncer, teardownSyncer, err := factory.NewTestConsensus(consensusConfig, "TestIBDHeaderGapSyncer")
	require.NoError(t, err)
	defer teardownSyncer(false)
	tcSyncee, teardownSyncee, err := factory.NewTestConsensus(consensusConfig, "TestIBDHeaderGapSyncee")
	require.NoError(t, err)
	defer teardownSyncee(false)

	genesisHash := consensusConfig.GenesisHash
	hashA, _, err := tcSyncer.AddBlock([]*externalapi.DomainHash{genesisHash}, nil, nil)
	require.NoError(t, err)
	hashB, _, err := tcSyncer.AddBlock([]*externalapi.DomainHash{hashA}, nil, nil)
	require.NoError(t, err)
	hashC, _, err := tcSyncer.AddBlock([]*externalapi.DomainHash{hashB}, nil, nil)
	require.NoError(t, err)

	headerA, err := tcSyncer.GetBlockHeader(hashA)
	require.NoError(t, err)
	headerC, err := tcSyncer.GetBlockHeader(hashC)
	require.NoError(t, err)
	relayBlock, found, err := tcSyncer.GetBlock(hashC)
	require.NoError(t, err)
	require.True(t, found)

	flowContext, peers, teardown := newTestFlowContext(t, consensusConfig, fakeDomain{tcSyncee}, 2)
	defer teardown()

	incomingRoute := routerpkg.NewRoute("incoming")
	outgoingRoute := routerpkg.NewRoute("outgoing")
	defer incomingRoute.Close()
	defer outgoingRoute.Close()

	errChan := make(chan error, 1)
	go func() {
		errChan <- blockrelay.HandleIBD(flowContext, incomingRoute, outgoingRoute, peers[0])
	}()
	peers[0].RequestIBD(relayBlock)

	// Full locator
	request := dequeueRequest(t, outgoingRoute)
	locatorRequest, ok := request.(*appmessage.MsgRequestIBDChainBlockLocator)
	require.True(t, ok, "unexpected %s", request.Command())
	require.Nil(t, locatorRequest.LowHash)
	require.Nil(t, locatorRequest.HighHash)
	require.NoError(t, incomingRoute.Enqueue(appmessage.NewMsgIBDChainBlockLocator(
		[]*externalapi.DomainHash{hashC, hashB, hashA, genesisHash})))

	// Zoom in between genesis and A
	request = dequeueRequest(t, outgoingRoute)
	locatorRequest, ok = request.(*appmessage.MsgRequestIBDChainBlockLocator)
	require.True(t, ok, "unexpected %s", request.Command())
	require.True(t, locatorRequest.LowHash.Equal(genesisHash))
	require.True(t, locatorRequest.HighHash.Equal(hashA))
	require.NoError(t, incomingRoute.Enqueue(appmessage.NewMsgIBDChainBlockLocator(
		[]*externalapi.DomainHash{hashA, genesisHash})))

	request = dequeueRequest(t, outgoingRoute)
	headersRequest, ok := request.(*appmessage.MsgRequestHeaders)
	require.True(t, ok, "unexpected %s", request.Command())
	require.True(t, headersRequest.LowHash.Equal(genesisHash))
	require.True(t, headersRequest.HighHash.Equal(hashC))

	// B is left out
	require.NoError(t, incomingRoute.Enqueue(appmessage.NewBlockHeadersMessage(
		[]externalapi.BlockHeader{headerA, headerC})))

	var ibdErr error
	select {
	case ibdErr = <-errChan:
	case <-time.After(10 * time.Second):
		t.Fatalf("HandleIBD did not return after a header gap")
	}
	isProtocolError, shouldBan := protocolerrors.IsProtocolError(ibdErr)
	require.True(t, isProtocolError, "expected a protocol error, got %+v", ibdErr)
	require.True(t, shouldBan)

	require.False(t, flowContext.IsIBDRunning())
	require.Equal(t, 1, peers[0].IBDAttempts())

	infoA, err := tcSyncee.GetBlockInfo(hashA)
	require.NoError(t, err)
	require.True(t, infoA.Exists)
	infoC, err := tcSyncee.GetBlockInfo(hashC)
	require.NoError(t, err)
	require.False(t, infoC.Exists)

	select {
	case job := <-peers[1].IBDRequestChannel():
		require.Same(t, relayBlock, job)
	case <-time.After(10 * time.Second):
		t.Fatalf("Expected the IBD job to be re-posted to the other peer")
	}
}

// TestIBDAlreadySynced checks that an IBD job towards a block the node
// already has finishes after the locator negotiation
func TestIBDAlreadySynced(t *testing.T) {
	consensusConfig := testutils.SimnetConfig()
	factory := consensus.NewFactory()

	tc, teardownConsensus, err := factory.NewTestConsensus(consensusConfig, "TestIBDAlreadySynced")
	require.NoError(t, err)
	defer teardownConsensus(false)

	tipHash, _, err := tc.AddBlock([]*externalapi.DomainHash{consensusConfig.GenesisHash}, nil, nil)
	require.NoError(t, err)
	tipBlock, found, err := tc.GetBlock(tipHash)
	require.NoError(t, err)
	require.True(t, found)

	flowContext, peers, teardown := newTestFlowContext(t, consensusConfig, fakeDomain{tc}, 1)
	defer teardown()

	incomingRoute := routerpkg.NewRoute("incoming")
	outgoingRoute := routerpkg.NewRoute("outgoing")
	defer incomingRoute.Close()
	defer outgoingRoute.Close()

	go func() {
		_ = blockrelay.HandleIBD(flowContext, incomingRoute, outgoingRoute, peers[0])
	}()
	peers[0].RequestIBD(tipBlock)

	request := dequeueRequest(t, outgoingRoute)
	_, ok := request.(*appmessage.MsgRequestIBDChainBlockLocator)
	require.True(t, ok, "unexpected %s", request.Command())
	require.NoError(t, incomingRoute.Enqueue(appmessage.NewMsgIBDChainBlockLocator(
		[]*externalapi.DomainHash{tipHash, consensusConfig.GenesisHash})))

	// Nothing else is requested
	_, err = outgoingRoute.DequeueWithTimeout(500 * time.Millisecond)
	require.Error(t, err)
	require.Equal(t, 0, peers[0].IBDAttempts())
}
