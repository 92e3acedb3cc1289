package transactionrelay

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

// TransactionsRelayContext is the interface for the context needed for the
// HandleInvTransactions flow.
type TransactionsRelayContext interface {
	IsIBDRunning() bool
}

type handleInvTransactionsFlow struct {
	TransactionsRelayContext
	incomingRoute *router.Route
}

// HandleInvTransactions drains transaction announcements. The node keeps no
// mempool, so announced transactions are never requested.
func HandleInvTransactions(context TransactionsRelayContext, incomingRoute *router.Route) error {
	flow := &handleInvTransactionsFlow{
		TransactionsRelayContext: context,
		incomingRoute:            incomingRoute,
	}
	return flow.start()
}

func (flow *handleInvTransactionsFlow) start() error {
	for {
		message, err := flow.incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		msgInvTransaction, ok := message.(*appmessage.MsgInvTransaction)
		if !ok {
			return protocolerrors.Errorf(true, "unexpected message. "+
				"Expected: %s, got: %s", appmessage.CmdInvTransaction, message.Command())
		}
		if len(msgInvTransaction.TxIDs) > appmessage.MaxInvPerMsg {
			return protocolerrors.Errorf(true, "message %s has %d transaction IDs, maximum is %d",
				msgInvTransaction.Command(), len(msgInvTransaction.TxIDs), appmessage.MaxInvPerMsg)
		}
		if flow.IsIBDRunning() {
			continue
		}
		log.Tracef("Ignoring %d announced transactions", len(msgInvTransaction.TxIDs))
	}
}
