package v5

import (
	"fmt"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/common"
	"github.com/calico-network/calicod/app/protocol/flowcontext"
	"github.com/calico-network/calicod/app/protocol/flows/v5/addressexchange"
	"github.com/calico-network/calicod/app/protocol/flows/v5/blockrelay"
	"github.com/calico-network/calicod/app/protocol/flows/v5/ping"
	"github.com/calico-network/calicod/app/protocol/flows/v5/rejects"
	"github.com/calico-network/calicod/app/protocol/flows/v5/transactionrelay"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	routerpkg "github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

// ibdRouteCapacity bounds the IBD route. The pruning point anticone with
// trusted data arrives without flow control, so the route is larger than
// the default.
const ibdRouteCapacity = 1 << 14

type protocolManager interface {
	RegisterFlow(name string, router *routerpkg.Router, messageTypes []appmessage.MessageCommand, isStopping *uint32,
		errChan chan error, initializeFunc common.FlowInitializeFunc) *common.Flow
	RegisterOneTimeFlow(name string, router *routerpkg.Router, messageTypes []appmessage.MessageCommand,
		isStopping *uint32, stopChan chan error, initializeFunc common.FlowInitializeFunc) *common.Flow
	RegisterFlowWithCapacity(name string, capacity int, router *routerpkg.Router,
		messageTypes []appmessage.MessageCommand, isStopping *uint32,
		errChan chan error, initializeFunc common.FlowInitializeFunc) *common.Flow
	Context() *flowcontext.FlowContext
}

// Register is used in order to register all the protocol flows to the given router.
func Register(m protocolManager, router *routerpkg.Router, errChan chan error, isStopping *uint32) (flows []*common.Flow) {
	flows = registerAddressFlows(m, router, isStopping, errChan)
	flows = append(flows, registerBlockRelayFlows(m, router, isStopping, errChan)...)
	flows = append(flows, registerPingFlows(m, router, isStopping, errChan)...)
	flows = append(flows, registerTransactionRelayFlow(m, router, isStopping, errChan)...)
	flows = append(flows, registerRejectsFlow(m, router, isStopping, errChan)...)

	return flows
}

func registerAddressFlows(m protocolManager, router *routerpkg.Router, isStopping *uint32, errChan chan error) []*common.Flow {
	outgoingRoute := router.OutgoingRoute()

	return []*common.Flow{
		m.RegisterFlow("SendAddresses", router, []appmessage.MessageCommand{appmessage.CmdRequestAddresses}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return addressexchange.SendAddresses(m.Context(), incomingRoute, outgoingRoute)
			},
		),

		m.RegisterOneTimeFlow("ReceiveAddresses", router, []appmessage.MessageCommand{appmessage.CmdAddresses}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return addressexchange.ReceiveAddresses(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),
	}
}

func registerBlockRelayFlows(m protocolManager, router *routerpkg.Router, isStopping *uint32, errChan chan error) []*common.Flow {
	outgoingRoute := router.OutgoingRoute()

	blockRoute, err := router.AddIncomingRoute("block", []appmessage.MessageCommand{appmessage.CmdBlock})
	if err != nil {
		panic(err)
	}
	blockLocatorRoute, err := router.AddIncomingRoute("blockLocator", []appmessage.MessageCommand{appmessage.CmdBlockLocator})
	if err != nil {
		panic(err)
	}
	responses := blockrelay.NewRelayResponses(blockRoute, blockLocatorRoute)

	flows := []*common.Flow{
		{
			Name: "SendVirtualSelectedParentInv",
			ExecuteFunc: func(peer *peerpkg.Peer) {
				err := blockrelay.SendVirtualSelectedParentInv(m.Context(), outgoingRoute, peer)
				if err != nil {
					m.Context().HandleError(err, "SendVirtualSelectedParentInv", isStopping, errChan)
				}
			},
		},

		{
			Name: "HandleRelayBlockResponses",
			ExecuteFunc: func(peer *peerpkg.Peer) {
				err := blockrelay.HandleRelayBlockResponses(responses)
				if err != nil {
					m.Context().HandleError(err, "HandleRelayBlockResponses", isStopping, errChan)
				}
			},
		},

		m.RegisterFlowWithCapacity("HandleIBD", ibdRouteCapacity, router, []appmessage.MessageCommand{
			appmessage.CmdBlockHeaders, appmessage.CmdDoneHeaders, appmessage.CmdIBDChainBlockLocator,
			appmessage.CmdIBDBlock, appmessage.CmdPruningPointProof, appmessage.CmdPruningPoints,
			appmessage.CmdBlockWithTrustedData, appmessage.CmdDoneBlocksWithTrustedData,
			appmessage.CmdPruningPointUTXOSetChunk, appmessage.CmdDonePruningPointUTXOSetChunks,
			appmessage.CmdUnexpectedPruningPoint,
		}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandleIBD(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),

		m.RegisterFlow("HandleRelayBlockRequests", router, []appmessage.MessageCommand{appmessage.CmdRequestRelayBlocks}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandleRelayBlockRequests(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),

		m.RegisterFlow("HandleRequestBlockLocator", router,
			[]appmessage.MessageCommand{appmessage.CmdRequestBlockLocator}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandleRequestBlockLocator(m.Context(), incomingRoute, outgoingRoute)
			},
		),

		m.RegisterFlow("HandleRequestHeaders", router,
			[]appmessage.MessageCommand{appmessage.CmdRequestHeaders, appmessage.CmdRequestNextHeaders}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandleRequestHeaders(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),

		m.RegisterFlow("HandleIBDBlockRequests", router,
			[]appmessage.MessageCommand{appmessage.CmdRequestIBDBlocks}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandleIBDBlockRequests(m.Context(), incomingRoute, outgoingRoute)
			},
		),

		m.RegisterFlow("HandleRequestPruningPointUTXOSet", router,
			[]appmessage.MessageCommand{appmessage.CmdRequestPruningPointUTXOSet,
				appmessage.CmdRequestNextPruningPointUTXOSetChunk}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandleRequestPruningPointUTXOSet(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),

		m.RegisterFlow("HandlePruningPointAndItsAnticoneRequests", router,
			[]appmessage.MessageCommand{appmessage.CmdRequestPruningPointAndItsAnticone}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandlePruningPointAndItsAnticoneRequests(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),

		m.RegisterFlow("HandleIBDChainBlockLocator", router,
			[]appmessage.MessageCommand{appmessage.CmdRequestIBDChainBlockLocator}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandleRequestIBDChainBlockLocator(m.Context(), incomingRoute, outgoingRoute)
			},
		),

		m.RegisterFlow("HandlePruningPointProofRequests", router,
			[]appmessage.MessageCommand{appmessage.CmdRequestPruningPointProof}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandlePruningPointProofRequests(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),

		m.RegisterFlow("HandleRequestAnticone", router,
			[]appmessage.MessageCommand{appmessage.CmdRequestAnticone}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return blockrelay.HandleRequestAnticone(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),
	}

	return append(flows, registerRelayInvsFlows(m, router, responses, isStopping, errChan)...)
}

// registerRelayInvsFlows registers max(bps/2, 1) HandleRelayInvs flows that
// share one InvRelayBlock route and one set of relay responses.
func registerRelayInvsFlows(m protocolManager, router *routerpkg.Router, responses *blockrelay.RelayResponses,
	isStopping *uint32, errChan chan error) []*common.Flow {

	outgoingRoute := router.OutgoingRoute()
	invRoute, err := router.AddIncomingRouteWithCapacity("HandleRelayInvs", ibdRouteCapacity,
		[]appmessage.MessageCommand{appmessage.CmdInvRelayBlock})
	if err != nil {
		panic(err)
	}

	handlerCount := int(m.Context().Config().NetParams().BlocksPerSecond / 2)
	if handlerCount < 1 {
		handlerCount = 1
	}

	flows := make([]*common.Flow, handlerCount)
	for i := range flows {
		flowName := "HandleRelayInvs"
		if i > 0 {
			flowName = fmt.Sprintf("HandleRelayInvs-%d", i)
		}
		flows[i] = &common.Flow{
			Name: flowName,
			ExecuteFunc: func(peer *peerpkg.Peer) {
				err := blockrelay.HandleRelayInvs(m.Context(), invRoute, outgoingRoute, responses, peer)
				if err != nil {
					m.Context().HandleError(err, flowName, isStopping, errChan)
				}
			},
		}
	}
	return flows
}

func registerPingFlows(m protocolManager, router *routerpkg.Router, isStopping *uint32, errChan chan error) []*common.Flow {
	outgoingRoute := router.OutgoingRoute()

	return []*common.Flow{
		m.RegisterFlow("ReceivePings", router, []appmessage.MessageCommand{appmessage.CmdPing}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return ping.ReceivePings(m.Context(), incomingRoute, outgoingRoute)
			},
		),

		m.RegisterFlow("SendPings", router, []appmessage.MessageCommand{appmessage.CmdPong}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return ping.SendPings(m.Context(), incomingRoute, outgoingRoute, peer)
			},
		),
	}
}

func registerTransactionRelayFlow(m protocolManager, router *routerpkg.Router, isStopping *uint32, errChan chan error) []*common.Flow {
	return []*common.Flow{
		m.RegisterFlow("HandleInvTransactions", router, []appmessage.MessageCommand{appmessage.CmdInvTransaction}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return transactionrelay.HandleInvTransactions(m.Context(), incomingRoute)
			},
		),
	}
}

func registerRejectsFlow(m protocolManager, router *routerpkg.Router, isStopping *uint32, errChan chan error) []*common.Flow {
	outgoingRoute := router.OutgoingRoute()

	return []*common.Flow{
		m.RegisterFlow("HandleRejects", router, []appmessage.MessageCommand{appmessage.CmdReject}, isStopping, errChan,
			func(incomingRoute *routerpkg.Route, peer *peerpkg.Peer) error {
				return rejects.HandleRejects(m.Context(), incomingRoute, outgoingRoute)
			},
		),
	}
}
