package netadapter

import (
	"sync"
	"sync/atomic"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/id"
	routerpkg "github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

// RouterInitializer is a function that initializes a new
// router to be used with a new connection
type RouterInitializer func(*routerpkg.Router, *NetConnection)

// ErrUnknownAddress is returned when connecting to an address no started
// NetAdapter listens on
var ErrUnknownAddress = errors.New("no node listens on the given address")

// ErrInboundLimitReached is returned when the remote node refuses further
// inbound connections
var ErrInboundLimitReached = errors.New("inbound connection limit reached")

// NetAdapter is an abstraction layer over networking.
// This type expects a RouteInitializer function. This
// function weaves together the various "routes" (messages
// and message handlers) without exposing anything related
// to networking internals.
//
// Connections are in-process: every started NetAdapter registers its
// listen addresses, and connecting pairs two NetConnections whose
// outgoing routes feed each other's routers.
type NetAdapter struct {
	cfg                  *config.Config
	id                   *id.ID
	p2pRouterInitializer RouterInitializer
	start                uint32
	stop                 uint32

	p2pConnections     map[*NetConnection]struct{}
	p2pConnectionsLock sync.RWMutex
}

// NewNetAdapter creates a new NetAdapter
func NewNetAdapter(cfg *config.Config) (*NetAdapter, error) {
	netAdapterID, err := id.GenerateID()
	if err != nil {
		return nil, err
	}
	adapter := NetAdapter{
		cfg: cfg,
		id:  netAdapterID,

		p2pConnections: make(map[*NetConnection]struct{}),
	}

	return &adapter, nil
}

// Start begins the operation of the NetAdapter
func (na *NetAdapter) Start() error {
	if na.p2pRouterInitializer == nil {
		return errors.New("p2pRouterInitializer was not set")
	}
	if atomic.AddUint32(&na.start, 1) != 1 {
		return errors.New("net adapter started more than once")
	}

	return registerListeners(na, na.cfg.Listeners)
}

// Stop safely closes the NetAdapter
func (na *NetAdapter) Stop() error {
	if atomic.AddUint32(&na.stop, 1) != 1 {
		return errors.New("net adapter stopped more than once")
	}
	unregisterListeners(na, na.cfg.Listeners)

	for _, netConnection := range na.P2PConnections() {
		netConnection.Disconnect()
	}
	return nil
}

// P2PConnect initiates a connection to the node listening on the given address
func (na *NetAdapter) P2PConnect(address string) error {
	remote, ok := lookupListener(address)
	if !ok {
		return errors.Wrapf(ErrUnknownAddress, "cannot connect to %s", address)
	}
	if remote == na {
		return errors.Errorf("cannot connect to own address %s", address)
	}

	outbound := newNetConnection(address, true)
	inbound := newNetConnection(na.localAddress(), false)
	outbound.remote = inbound
	inbound.remote = outbound

	err := remote.onInboundConnection(inbound)
	if err != nil {
		return err
	}
	na.onConnected(outbound)

	outbound.start()
	inbound.start()
	return nil
}

func (na *NetAdapter) localAddress() string {
	if len(na.cfg.Listeners) > 0 {
		return na.cfg.Listeners[0]
	}
	return na.id.String()
}

func (na *NetAdapter) onInboundConnection(netConnection *NetConnection) error {
	if atomic.LoadUint32(&na.stop) != 0 {
		return errors.Wrapf(ErrUnknownAddress, "node %s is stopped", na.id)
	}

	inboundCount := 0
	for _, connection := range na.P2PConnections() {
		if !connection.IsOutbound() {
			inboundCount++
		}
	}
	if inboundCount >= na.cfg.MaxInboundPeers {
		return errors.Wrapf(ErrInboundLimitReached, "node %s already has %d inbound connections",
			na.id, inboundCount)
	}

	na.onConnected(netConnection)
	return nil
}

func (na *NetAdapter) onConnected(netConnection *NetConnection) {
	netConnection.router = routerpkg.NewRouter()
	na.p2pRouterInitializer(netConnection.router, netConnection)

	na.p2pConnectionsLock.Lock()
	defer na.p2pConnectionsLock.Unlock()

	netConnection.setOnDisconnectedHandler(func() {
		na.p2pConnectionsLock.Lock()
		defer na.p2pConnectionsLock.Unlock()

		delete(na.p2pConnections, netConnection)
	})

	na.p2pConnections[netConnection] = struct{}{}
}

// P2PConnections returns a list of p2p connections currently connected and active
func (na *NetAdapter) P2PConnections() []*NetConnection {
	na.p2pConnectionsLock.RLock()
	defer na.p2pConnectionsLock.RUnlock()

	netConnections := make([]*NetConnection, 0, len(na.p2pConnections))

	for netConnection := range na.p2pConnections {
		netConnections = append(netConnections, netConnection)
	}

	return netConnections
}

// P2PConnectionCount returns the count of the connected p2p connections
func (na *NetAdapter) P2PConnectionCount() int {
	na.p2pConnectionsLock.RLock()
	defer na.p2pConnectionsLock.RUnlock()

	return len(na.p2pConnections)
}

// SetP2PRouterInitializer sets the p2pRouterInitializer function
// for the net adapter
func (na *NetAdapter) SetP2PRouterInitializer(routerInitializer RouterInitializer) {
	na.p2pRouterInitializer = routerInitializer
}

// ID returns this netAdapter's ID in the network
func (na *NetAdapter) ID() *id.ID {
	return na.id
}

// P2PBroadcast sends the given `message` to every peer corresponding
// to each NetConnection in the given netConnections
func (na *NetAdapter) P2PBroadcast(netConnections []*NetConnection, message appmessage.Message) error {
	for _, netConnection := range netConnections {
		err := netConnection.router.OutgoingRoute().Enqueue(message)
		if err != nil {
			if errors.Is(err, routerpkg.ErrRouteClosed) {
				log.Debugf("Cannot enqueue message to %s: router is closed", netConnection)
				continue
			}
			return err
		}
	}
	return nil
}
