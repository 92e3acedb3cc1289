package netadapter

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/id"
	routerpkg "github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

// NetConnection is one end of an in-process connection between two NetAdapters
type NetConnection struct {
	address    string
	isOutbound bool
	router     *routerpkg.Router
	remote     *NetConnection

	id     *id.ID
	idLock sync.RWMutex

	onDisconnectedHandler func()
	isConnected           uint32
}

func newNetConnection(address string, isOutbound bool) *NetConnection {
	return &NetConnection{
		address:     address,
		isOutbound:  isOutbound,
		isConnected: 1,
	}
}

func (c *NetConnection) String() string {
	return fmt.Sprintf("<%s: %s>", c.ID(), c.address)
}

// ID returns the ID associated with this connection, or nil before the handshake set it
func (c *NetConnection) ID() *id.ID {
	c.idLock.RLock()
	defer c.idLock.RUnlock()

	return c.id
}

// SetID sets the ID associated with this connection
func (c *NetConnection) SetID(peerID *id.ID) {
	c.idLock.Lock()
	defer c.idLock.Unlock()

	c.id = peerID
}

// Address returns the address associated with this connection
func (c *NetConnection) Address() string {
	return c.address
}

// IsOutbound returns whether the connection was initiated by this side
func (c *NetConnection) IsOutbound() bool {
	return c.isOutbound
}

// IsConnected returns whether the connection is still open
func (c *NetConnection) IsConnected() bool {
	return atomic.LoadUint32(&c.isConnected) == 1
}

func (c *NetConnection) setOnDisconnectedHandler(onDisconnectedHandler func()) {
	c.onDisconnectedHandler = onDisconnectedHandler
}

func (c *NetConnection) start() {
	spawn("NetConnection.start-sendLoop", func() {
		err := c.sendLoop()
		if err != nil && !errors.Is(err, routerpkg.ErrRouteClosed) {
			log.Warnf("Disconnecting from %s: %s", c, err)
		}
		c.Disconnect()
	})
}

// sendLoop moves messages from this side's outgoing route into the remote
// side's incoming routes until either route closes
func (c *NetConnection) sendLoop() error {
	for {
		message, err := c.router.OutgoingRoute().Dequeue()
		if err != nil {
			return err
		}
		if !c.remote.IsConnected() {
			return errors.WithStack(routerpkg.ErrRouteClosed)
		}
		log.Tracef("Sending %s to %s: %s", message.Command(), c, logger.NewLogClosure(func() string {
			return spew.Sdump(message)
		}))
		err = c.remote.router.EnqueueIncomingMessage(message)
		if errors.Is(err, routerpkg.ErrRouteCapacityReached) {
			c.remote.rejectDroppedMessage(message, err)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "failed to deliver %s", message.Command())
		}
	}
}

// rejectDroppedMessage answers a message that could not be routed because its
// route is full with a route-full reject, instead of blocking the sender
func (c *NetConnection) rejectDroppedMessage(message appmessage.Message, routeErr error) {
	log.Debugf("Dropping %s from %s: %s", message.Command(), c, routeErr)
	if message.Command() == appmessage.CmdReject {
		return
	}
	reason := fmt.Sprintf("%s: dropped %s", appmessage.RejectReasonRouteFull, message.Command())
	err := c.router.OutgoingRoute().Enqueue(appmessage.NewMsgReject(reason))
	if err != nil {
		log.Debugf("Could not send a route-full reject to %s: %s", c, err)
	}
}

// Disconnect closes both sides of the connection
func (c *NetConnection) Disconnect() {
	if !atomic.CompareAndSwapUint32(&c.isConnected, 1, 0) {
		return
	}

	log.Debugf("Disconnecting from %s", c)
	c.router.Close()
	if c.onDisconnectedHandler != nil {
		c.onDisconnectedHandler()
	}
	c.remote.Disconnect()
}
