package protocol

import (
	"sync"
	"sync/atomic"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/common"
	v5 "github.com/calico-network/calicod/app/protocol/flows/v5"
	"github.com/calico-network/calicod/app/protocol/flows/v5/handshake"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/infrastructure/network/netadapter"
	routerpkg "github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

func (m *Manager) routerInitializer(router *routerpkg.Router, netConnection *netadapter.NetConnection) {
	// isStopping flag is raised the moment that the connection associated with this router is disconnected
	// errChan is used by the flow goroutines to return to runFlows when an error occurs.
	// They are both initialized here and passed to register flows.
	isStopping := uint32(0)
	errChan := make(chan error, 1)

	// Every route is registered before the handshake starts, so messages a
	// faster peer sends right after its own handshake are queued, not dropped.
	receiveVersionRoute, sendVersionRoute := registerHandshakeRoutes(router)
	flows := v5.Register(m, router, errChan, &isStopping)

	// After flows were registered - spawn a new thread that will wait for connection to finish initializing
	// and start receiving messages
	m.routersWaitGroup.Add(1)
	spawn("routerInitializer-runFlows", func() {
		defer m.routersWaitGroup.Done()

		if atomic.LoadUint32(&m.isClosed) == 1 {
			log.Debugf("Not initializing %s since the protocol manager is closed", netConnection)
			netConnection.Disconnect()
			return
		}

		isBanned, err := m.context.ConnectionManager().IsBanned(netConnection)
		if err != nil {
			panic(err)
		}
		if isBanned {
			log.Infof("Peer %s is banned. Disconnecting...", netConnection)
			netConnection.Disconnect()
			return
		}

		peer, err := handshake.HandleHandshake(m.context, netConnection, receiveVersionRoute,
			sendVersionRoute, router.OutgoingRoute())
		if err != nil {
			m.handleError(err, netConnection, nil)
			return
		}
		defer m.context.RemoveFromPeers(peer)

		log.Infof("Running p2p flows for peer %s for protocol version %d", peer, peer.ProtocolVersion())
		flowsWaitGroup := &sync.WaitGroup{}
		err = m.runFlows(flows, peer, errChan, flowsWaitGroup)
		m.handleError(err, netConnection, peer)

		peer.Close()
		flowsWaitGroup.Wait()
	})
}

func (m *Manager) handleError(err error, netConnection *netadapter.NetConnection, peer *peerpkg.Peer) {
	if isProtocolError, shouldBan := protocolerrors.IsProtocolError(err); isProtocolError {
		log.Infof("Disconnecting from %s: %s", netConnection, err)
		if shouldBan {
			m.ban(err, netConnection, peer)
		}
		netConnection.Disconnect()
		return
	}
	if errors.Is(err, routerpkg.ErrTimeout) {
		log.Warnf("Got timeout from %s. Disconnecting...", netConnection)
		netConnection.Disconnect()
		return
	}
	if errors.Is(err, routerpkg.ErrRouteClosed) {
		netConnection.Disconnect()
		return
	}
	panic(err)
}

func (m *Manager) ban(reason error, netConnection *netadapter.NetConnection, peer *peerpkg.Peer) {
	var err error
	if peer != nil {
		err = m.context.BanPeer(peer, reason.Error())
	} else if !m.context.Config().DisableBanning {
		err = m.context.ConnectionManager().Ban(netConnection)
	}
	if err != nil && !errors.Is(err, routerpkg.ErrRouteClosed) {
		panic(err)
	}
}

// RegisterFlow registers a flow to the given router.
func (m *Manager) RegisterFlow(name string, router *routerpkg.Router, messageTypes []appmessage.MessageCommand, isStopping *uint32,
	errChan chan error, initializeFunc common.FlowInitializeFunc) *common.Flow {

	route, err := router.AddIncomingRoute(name, messageTypes)
	if err != nil {
		panic(err)
	}

	return m.registerFlowForRoute(route, name, isStopping, errChan, initializeFunc)
}

// RegisterFlowWithCapacity registers a flow to the given router with a custom capacity.
func (m *Manager) RegisterFlowWithCapacity(name string, capacity int, router *routerpkg.Router,
	messageTypes []appmessage.MessageCommand, isStopping *uint32,
	errChan chan error, initializeFunc common.FlowInitializeFunc) *common.Flow {

	route, err := router.AddIncomingRouteWithCapacity(name, capacity, messageTypes)
	if err != nil {
		panic(err)
	}

	return m.registerFlowForRoute(route, name, isStopping, errChan, initializeFunc)
}

func (m *Manager) registerFlowForRoute(route *routerpkg.Route, name string, isStopping *uint32,
	errChan chan error, initializeFunc common.FlowInitializeFunc) *common.Flow {

	return &common.Flow{
		Name: name,
		ExecuteFunc: func(peer *peerpkg.Peer) {
			err := initializeFunc(route, peer)
			if err != nil {
				m.context.HandleError(err, name, isStopping, errChan)
				return
			}
		},
	}
}

// RegisterOneTimeFlow registers a flow to the given router that runs once
// and unregisters its route when it is done.
func (m *Manager) RegisterOneTimeFlow(name string, router *routerpkg.Router, messageTypes []appmessage.MessageCommand,
	isStopping *uint32, stopChan chan error, initializeFunc common.FlowInitializeFunc) *common.Flow {

	route, err := router.AddIncomingRoute(name, messageTypes)
	if err != nil {
		panic(err)
	}

	return &common.Flow{
		Name: name,
		ExecuteFunc: func(peer *peerpkg.Peer) {
			defer func() {
				err := router.RemoveRoute(messageTypes)
				if err != nil {
					panic(err)
				}
			}()

			err := initializeFunc(route, peer)
			if err != nil {
				m.context.HandleError(err, name, isStopping, stopChan)
				return
			}
		},
	}
}

func registerHandshakeRoutes(router *routerpkg.Router) (
	receiveVersionRoute, sendVersionRoute *routerpkg.Route) {

	receiveVersionRoute, err := router.AddIncomingRoute("recieveVersion - incoming", []appmessage.MessageCommand{appmessage.CmdVersion})
	if err != nil {
		panic(err)
	}

	sendVersionRoute, err = router.AddIncomingRoute("sendVersion - incoming", []appmessage.MessageCommand{appmessage.CmdVerAck})
	if err != nil {
		panic(err)
	}

	return receiveVersionRoute, sendVersionRoute
}
