package blockrelay

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

// RequestIBDChainBlockLocatorContext is the interface for the context needed for the HandleRequestIBDChainBlockLocator flow.
type RequestIBDChainBlockLocatorContext interface {
	Domain() domain.Domain
}

type handleRequestIBDChainBlockLocatorFlow struct {
	RequestIBDChainBlockLocatorContext
	incomingRoute, outgoingRoute *router.Route
}

// HandleRequestIBDChainBlockLocator handles getIBDChainBlockLocator messages
func HandleRequestIBDChainBlockLocator(context RequestIBDChainBlockLocatorContext, incomingRoute *router.Route,
	outgoingRoute *router.Route) error {

	flow := &handleRequestIBDChainBlockLocatorFlow{
		RequestIBDChainBlockLocatorContext: context,
		incomingRoute:                      incomingRoute,
		outgoingRoute:                      outgoingRoute,
	}
	return flow.start()
}

func (flow *handleRequestIBDChainBlockLocatorFlow) start() error {
	for {
		message, err := flow.incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		request := message.(*appmessage.MsgRequestIBDChainBlockLocator)
		lowHash, highHash := request.LowHash, request.HighHash
		log.Debugf("Received getIBDChainBlockLocator with lowHash: %s, highHash: %s", lowHash, highHash)

		var locator externalapi.BlockLocator
		if highHash == nil || lowHash == nil {
			locator, err = flow.Domain().Consensus().CreateFullSelectedChainBlockLocator()
		} else {
			locator, err = flow.Domain().Consensus().CreateSelectedChainBlockLocator(lowHash, highHash)
			if database.IsNotFoundError(err) {
				// The chain has moved under the requested window
				locator, err = externalapi.BlockLocator{}, nil
			}
		}

		if err != nil {
			log.Debugf("Received error from CreateSelectedChainBlockLocator: %s", err)
			return protocolerrors.Errorf(true, "couldn't build a block "+
				"locator between %s and %s", lowHash, highHash)
		}

		err = flow.outgoingRoute.Enqueue(appmessage.NewMsgIBDChainBlockLocator(locator))
		if err != nil {
			return err
		}
	}
}
