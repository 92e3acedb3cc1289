package blockrelay

import (
	"sort"

	"github.com/calico-network/calicod/app/appmessage"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

// RequestAnticoneContext is the interface for the context needed for the HandleRequestAnticone flow.
type RequestAnticoneContext interface {
	Domain() domain.Domain
	Config() *config.Config
}

// HandleRequestAnticone answers MsgRequestAnticone with the headers of
// anticone(BlockHash) within past(ContextHash), ordered so that every
// header comes after its parents.
func HandleRequestAnticone(context RequestAnticoneContext, incomingRoute *router.Route,
	outgoingRoute *router.Route, peer *peerpkg.Peer) error {

	for {
		message, err := incomingRoute.Dequeue()
		if err != nil {
			return err
		}
		msgRequestAnticone := message.(*appmessage.MsgRequestAnticone)
		blockHash, contextHash := msgRequestAnticone.BlockHash, msgRequestAnticone.ContextHash
		log.Debugf("Received request for the anticone of %s in the past of %s from %s", blockHash, contextHash, peer)

		consensus := context.Domain().Consensus()
		// The anticone of a chain block within the past of a block
		// announced shortly after it is bounded by a single mergeset
		maxBlocks := uint64(context.Config().NetParams().MergeSetSizeLimit) + 2
		hashes, err := consensus.GetAnticone(blockHash, contextHash, maxBlocks)
		if err != nil {
			return protocolerrors.Wrapf(true, err, "failed querying anticone of %s in the past of %s",
				blockHash, contextHash)
		}

		blockHeaders, err := headersSortedByBlueWork(consensus, hashes)
		if err != nil {
			return err
		}

		err = outgoingRoute.Enqueue(appmessage.NewBlockHeadersMessage(blockHeaders))
		if err != nil {
			return err
		}
		err = outgoingRoute.Enqueue(appmessage.NewMsgDoneHeaders())
		if err != nil {
			return err
		}
	}
}

func headersSortedByBlueWork(consensus externalapi.Consensus,
	hashes []*externalapi.DomainHash) ([]externalapi.BlockHeader, error) {

	blockHeaders := make([]externalapi.BlockHeader, len(hashes))
	for i, hash := range hashes {
		header, err := consensus.GetBlockHeader(hash)
		if err != nil {
			return nil, err
		}
		blockHeaders[i] = header
	}

	// A parent always has less blue work than its child
	sort.SliceStable(blockHeaders, func(i, j int) bool {
		return blockHeaders[i].BlueWork().Cmp(blockHeaders[j].BlueWork()) < 0
	})
	return blockHeaders, nil
}
