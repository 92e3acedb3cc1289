package blockrelay

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

// RequestBlockLocatorContext is the interface for the context needed for the HandleRequestBlockLocator flow.
type RequestBlockLocatorContext interface {
	Domain() domain.Domain
}

// HandleRequestBlockLocator answers the block locator requests used to
// resolve orphans
func HandleRequestBlockLocator(context RequestBlockLocatorContext, incomingRoute *router.Route,
	outgoingRoute *router.Route) error {

	for {
		message, err := incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		request := message.(*appmessage.MsgRequestBlockLocator)
		log.Debugf("Received getBlockLocator with highHash: %s, limit: %d", request.HighHash, request.Limit)

		locator, err := context.Domain().Consensus().CreateBlockLocatorFromPruningPoint(request.HighHash, request.Limit)
		if err != nil || len(locator) == 0 {
			if err != nil {
				log.Debugf("Received error from CreateBlockLocatorFromPruningPoint: %s", err)
			}
			return protocolerrors.Errorf(true, "couldn't build a block "+
				"locator between the pruning point and %s", request.HighHash)
		}

		err = outgoingRoute.Enqueue(appmessage.NewMsgBlockLocator(locator))
		if err != nil {
			return err
		}
	}
}
