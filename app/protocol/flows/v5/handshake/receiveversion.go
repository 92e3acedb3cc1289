package handshake

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/common"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

var (
	// allowSelfConnections is only used to allow the tests to bypass the self
	// connection detecting and disconnect logic since they intentionally
	// do so for testing purposes.
	allowSelfConnections bool

	// minAcceptableProtocolVersion is the lowest protocol version that a
	// connected peer may support.
	minAcceptableProtocolVersion = appmessage.ProtocolVersion
)

type receiveVersionFlow struct {
	HandleHandshakeContext
	incomingRoute, outgoingRoute *router.Route
	peer                         *peerpkg.Peer
}

// ReceiveVersion waits for the peer to send a version message, sends a
// verack in response, and updates its info accordingly.
func ReceiveVersion(context HandleHandshakeContext, incomingRoute *router.Route, outgoingRoute *router.Route,
	peer *peerpkg.Peer) error {

	flow := &receiveVersionFlow{
		HandleHandshakeContext: context,
		incomingRoute:          incomingRoute,
		outgoingRoute:          outgoingRoute,
		peer:                   peer,
	}

	return flow.start()
}

func (flow *receiveVersionFlow) start() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "receiveVersionFlow.start")
	defer onEnd()

	log.Debugf("Starting receiveVersionFlow with %s", flow.peer.Address())

	message, err := flow.incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
	if err != nil {
		return err
	}

	log.Debugf("Got version message")

	msgVersion, ok := message.(*appmessage.MsgVersion)
	if !ok {
		return protocolerrors.New(true, "a version message must precede all others")
	}

	if msgVersion.ID == nil {
		return protocolerrors.New(true, "version message is missing the peer ID")
	}

	if !allowSelfConnections && flow.NetAdapter().ID().Equal(msgVersion.ID) {
		return protocolerrors.New(false, "connected to self")
	}

	// Disconnect and ban peers from a different network
	if msgVersion.Network != flow.Config().NetParams().Name {
		return protocolerrors.Errorf(true, "wrong network")
	}

	// Notify and disconnect clients that have a protocol version that is
	// too old.
	if msgVersion.ProtocolVersion < minAcceptableProtocolVersion {
		return protocolerrors.Errorf(false, "protocol version must be %d or greater",
			minAcceptableProtocolVersion)
	}

	flow.peer.UpdateFieldsFromMsgVersion(msgVersion, appmessage.ProtocolVersion)
	err = flow.outgoingRoute.Enqueue(appmessage.NewMsgVerAck())
	if err != nil {
		return err
	}

	flow.peer.Connection().SetID(msgVersion.ID)

	return nil
}
