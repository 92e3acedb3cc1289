package blockrelay

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/common"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

// HandleRequestPruningPointUTXOSetContext is the interface for the context needed for the HandleRequestPruningPointUTXOSet flow.
type HandleRequestPruningPointUTXOSetContext interface {
	Domain() domain.Domain
}

type handleRequestPruningPointUTXOSetFlow struct {
	HandleRequestPruningPointUTXOSetContext
	incomingRoute, outgoingRoute *router.Route
	peer                         *peerpkg.Peer
}

// HandleRequestPruningPointUTXOSet listens to appmessage.MsgRequestPruningPointUTXOSet messages and sends
// the pruning point UTXO set in chunks.
func HandleRequestPruningPointUTXOSet(context HandleRequestPruningPointUTXOSetContext, incomingRoute,
	outgoingRoute *router.Route, peer *peerpkg.Peer) error {

	flow := &handleRequestPruningPointUTXOSetFlow{
		HandleRequestPruningPointUTXOSetContext: context,
		incomingRoute:                           incomingRoute,
		outgoingRoute:                           outgoingRoute,
		peer:                                    peer,
	}

	return flow.start()
}

func (flow *handleRequestPruningPointUTXOSetFlow) start() error {
	for {
		msgRequestPruningPointUTXOSet, err := flow.waitForRequestPruningPointUTXOSetMessages()
		if err != nil {
			return err
		}

		err = flow.handleRequestPruningPointUTXOSetMessage(msgRequestPruningPointUTXOSet)
		if err != nil {
			return err
		}
	}
}

func (flow *handleRequestPruningPointUTXOSetFlow) handleRequestPruningPointUTXOSetMessage(
	msgRequestPruningPointUTXOSet *appmessage.MsgRequestPruningPointUTXOSet) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "handleRequestPruningPointUTXOSetFlow")
	defer onEnd()

	log.Debugf("Got request for pruning point UTXO set %s from %s",
		msgRequestPruningPointUTXOSet.PruningPointHash, flow.peer)

	return flow.sendPruningPointUTXOSet(msgRequestPruningPointUTXOSet)
}

func (flow *handleRequestPruningPointUTXOSetFlow) waitForRequestPruningPointUTXOSetMessages() (
	*appmessage.MsgRequestPruningPointUTXOSet, error) {

	message, err := flow.incomingRoute.Dequeue()
	if err != nil {
		return nil, err
	}
	msgRequestPruningPointUTXOSet, ok := message.(*appmessage.MsgRequestPruningPointUTXOSet)
	if !ok {
		return nil, protocolerrors.Errorf(true, "received unexpected message type. "+
			"expected: %s, got: %s", appmessage.CmdRequestPruningPointUTXOSet, message.Command())
	}
	return msgRequestPruningPointUTXOSet, nil
}

func (flow *handleRequestPruningPointUTXOSetFlow) sendPruningPointUTXOSet(
	msgRequestPruningPointUTXOSet *appmessage.MsgRequestPruningPointUTXOSet) error {

	// Send the UTXO set in `step`-sized chunks
	const step = 1000
	var fromOutpoint *externalapi.DomainOutpoint
	chunksSent := 0
	for {
		pruningPointUTXOs, err := flow.Domain().Consensus().GetPruningPointUTXOs(
			msgRequestPruningPointUTXOSet.PruningPointHash, fromOutpoint, step)
		if err != nil {
			if errors.Is(err, ruleerrors.ErrWrongPruningPointHash) {
				return flow.outgoingRoute.Enqueue(appmessage.NewMsgUnexpectedPruningPoint())
			}
			return err
		}

		log.Debugf("Retrieved %d UTXOs for pruning block %s",
			len(pruningPointUTXOs), msgRequestPruningPointUTXOSet.PruningPointHash)

		err = flow.outgoingRoute.Enqueue(appmessage.NewMsgPruningPointUTXOSetChunk(pruningPointUTXOs))
		if err != nil {
			return err
		}

		if len(pruningPointUTXOs) > 0 {
			fromOutpoint = pruningPointUTXOs[len(pruningPointUTXOs)-1].Outpoint
		}
		chunksSent++

		// Wait for the peer to request more chunks every `ibdBatchSize` chunks
		if chunksSent%ibdBatchSize == 0 {
			message, err := flow.incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
			if err != nil {
				return err
			}
			_, ok := message.(*appmessage.MsgRequestNextPruningPointUTXOSetChunk)
			if !ok {
				return protocolerrors.Errorf(true, "received unexpected message type. "+
					"expected: %s, got: %s", appmessage.CmdRequestNextPruningPointUTXOSetChunk, message.Command())
			}
		}

		if len(pruningPointUTXOs) < step {
			log.Debugf("Finished sending UTXOs for pruning block %s",
				msgRequestPruningPointUTXOSet.PruningPointHash)

			return flow.outgoingRoute.Enqueue(appmessage.NewMsgDonePruningPointUTXOSetChunks())
		}
	}
}
