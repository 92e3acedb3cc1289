package ping

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

// ReceivePingsContext is the interface for the context needed for the ReceivePings flow.
type ReceivePingsContext interface {
}

// ReceivePings handles all ping messages coming through incomingRoute.
// This function assumes that incomingRoute will only return MsgPing.
func ReceivePings(_ ReceivePingsContext, incomingRoute *router.Route, outgoingRoute *router.Route) error {
	for {
		message, err := incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		pingMessage, ok := message.(*appmessage.MsgPing)
		if !ok {
			return protocolerrors.Errorf(true, "unexpected message. "+
				"Expected: %s, got: %s", appmessage.CmdPing, message.Command())
		}

		pongMessage := appmessage.NewMsgPong(pingMessage.Nonce)
		err = outgoingRoute.Enqueue(pongMessage)
		if err != nil {
			return err
		}
	}
}
