package connmanager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/addressmanager"
	"github.com/calico-network/calicod/infrastructure/network/netadapter"
	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
)

// connectionRequest represents a user request (either through CLI or the app) to connect to a certain node
type connectionRequest struct {
	address     string
	isPermanent bool
	nextAttempt time.Time
	retry       *backoff.Backoff
}

// ConnectionManager monitors that the current active connections satisfy the requirements of
// outgoing, requested and incoming connections
type ConnectionManager struct {
	cfg            *config.Config
	netAdapter     *netadapter.NetAdapter
	addressManager *addressmanager.AddressManager

	activeRequested  map[string]*connectionRequest
	pendingRequested map[string]*connectionRequest
	activeOutgoing   map[string]struct{}
	targetOutgoing   int
	maxIncoming      int

	stop                   uint32
	connectionRequestsLock sync.Mutex

	resetLoopChan chan struct{}
	stopChan      chan struct{}
	loopTicker    *time.Ticker
}

// New instantiates a new instance of a ConnectionManager
func New(cfg *config.Config, netAdapter *netadapter.NetAdapter, addressManager *addressmanager.AddressManager) (*ConnectionManager, error) {
	c := &ConnectionManager{
		cfg:              cfg,
		netAdapter:       netAdapter,
		addressManager:   addressManager,
		activeRequested:  map[string]*connectionRequest{},
		pendingRequested: map[string]*connectionRequest{},
		activeOutgoing:   map[string]struct{}{},
		resetLoopChan:    make(chan struct{}, 1),
		stopChan:         make(chan struct{}),
		loopTicker:       time.NewTicker(connectionsLoopInterval),
	}

	c.maxIncoming = cfg.MaxInboundPeers
	c.targetOutgoing = cfg.TargetOutboundPeers

	for _, connectPeer := range cfg.ConnectPeers {
		c.pendingRequested[connectPeer] = newConnectionRequest(connectPeer, true)
	}

	return c, nil
}

// Start begins the operation of the ConnectionManager
func (c *ConnectionManager) Start() {
	spawn("ConnectionManager.connectionsLoop", c.connectionsLoop)
}

// Stop halts the operation of the ConnectionManager
func (c *ConnectionManager) Stop() {
	if !atomic.CompareAndSwapUint32(&c.stop, 0, 1) {
		return
	}
	close(c.stopChan)

	for _, connection := range c.netAdapter.P2PConnections() {
		connection.Disconnect()
	}
}

// Run wakes the connections loop for an immediate iteration
func (c *ConnectionManager) Run() {
	if atomic.LoadUint32(&c.stop) != 0 {
		return
	}
	select {
	case c.resetLoopChan <- struct{}{}:
	default:
	}
}

func (c *ConnectionManager) initiateConnection(address string) error {
	log.Infof("Connecting to %s", address)
	return c.netAdapter.P2PConnect(address)
}

const connectionsLoopInterval = 30 * time.Second

func (c *ConnectionManager) connectionsLoop() {
	defer c.loopTicker.Stop()

	for atomic.LoadUint32(&c.stop) == 0 {
		connections := c.netAdapter.P2PConnections()

		// We convert the connections list to a set, so that connections can be found quickly
		// Then we go over the set, classifying connection by category: requested, outgoing or incoming.
		// Every step removes all matching connections so that once we get to checkIncomingConnections -
		// the only connections left are the incoming ones
		connSet := convertToSet(connections)

		c.checkRequestedConnections(connSet)

		c.checkOutgoingConnections(connSet)

		c.checkIncomingConnections(connSet)

		c.waitTillNextIteration()
	}
}

// ConnectionCount returns the count of the connected connections
func (c *ConnectionManager) ConnectionCount() int {
	return c.netAdapter.P2PConnectionCount()
}

// Ban disconnects the given netConnection and prevents its address from
// being connected to again
func (c *ConnectionManager) Ban(netConnection *netadapter.NetConnection) error {
	log.Infof("Banning %s", netConnection)
	netConnection.Disconnect()
	return c.addressManager.Ban(appmessage.NewNetAddress(netConnection.Address()))
}

// IsBanned returns whether the given netConnection's address is banned
func (c *ConnectionManager) IsBanned(netConnection *netadapter.NetConnection) (bool, error) {
	isBanned, err := c.addressManager.IsBanned(appmessage.NewNetAddress(netConnection.Address()))
	if err != nil {
		if errors.Is(err, addressmanager.ErrAddressNotFound) {
			return false, nil
		}
		return false, err
	}
	return isBanned, nil
}

func (c *ConnectionManager) waitTillNextIteration() {
	select {
	case <-c.resetLoopChan:
		c.loopTicker.Reset(connectionsLoopInterval)
	case <-c.loopTicker.C:
	case <-c.stopChan:
	}
}
