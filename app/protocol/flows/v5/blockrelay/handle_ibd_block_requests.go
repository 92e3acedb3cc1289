package blockrelay

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

// HandleIBDBlockRequestsContext is the interface for the context needed for the HandleIBDBlockRequests flow.
type HandleIBDBlockRequestsContext interface {
	Domain() domain.Domain
}

// HandleIBDBlockRequests listens to appmessage.MsgRequestIBDBlocks messages and sends
// the requested bodies in the order they were requested.
func HandleIBDBlockRequests(context HandleIBDBlockRequestsContext, incomingRoute *router.Route,
	outgoingRoute *router.Route) error {

	for {
		message, err := incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		msgRequestIBDBlocks := message.(*appmessage.MsgRequestIBDBlocks)
		log.Debugf("Got request for %d ibd blocks", len(msgRequestIBDBlocks.Hashes))
		for i, hash := range msgRequestIBDBlocks.Hashes {
			block, found, err := context.Domain().Consensus().GetBlock(hash)
			if err != nil {
				return errors.Wrapf(err, "unable to fetch requested block hash %s", hash)
			}

			if !found {
				return protocolerrors.Errorf(false, "IBD block %s not found", hash)
			}

			err = outgoingRoute.Enqueue(appmessage.NewMsgIBDBlock(block))
			if err != nil {
				return err
			}
			log.Debugf("sent %d out of %d", i+1, len(msgRequestIBDBlocks.Hashes))
		}
	}
}
