package blockrelay

import (
	"github.com/calico-network/calicod/app/appmessage"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

// maxHeadersPerChunk bounds the blue score span, and so roughly the number
// of headers, covered by a single BlockHeaders message
const maxHeadersPerChunk = 1 << 10

// RequestHeadersContext is the interface for the context needed for the HandleRequestHeaders flow.
type RequestHeadersContext interface {
	Domain() domain.Domain
}

type handleRequestHeadersFlow struct {
	RequestHeadersContext
	incomingRoute, outgoingRoute *router.Route
	peer                         *peerpkg.Peer
}

// HandleRequestHeaders handles RequestHeaders messages
func HandleRequestHeaders(context RequestHeadersContext, incomingRoute *router.Route,
	outgoingRoute *router.Route, peer *peerpkg.Peer) error {

	flow := &handleRequestHeadersFlow{
		RequestHeadersContext: context,
		incomingRoute:         incomingRoute,
		outgoingRoute:         outgoingRoute,
		peer:                  peer,
	}
	return flow.start()
}

func (flow *handleRequestHeadersFlow) start() error {
	for {
		lowHash, highHash, err := flow.receiveRequestHeaders()
		if err != nil {
			return err
		}
		log.Debugf("Received requestHeaders with lowHash: %s, highHash: %s from %s", lowHash, highHash, flow.peer)

		consensus := flow.Domain().Consensus()
		for _, hash := range []*externalapi.DomainHash{lowHash, highHash} {
			info, err := consensus.GetBlockInfo(hash)
			if err != nil {
				return err
			}
			if !info.HasHeader() {
				return protocolerrors.Errorf(true, "requested headers for unknown block %s", hash)
			}
		}

		for !lowHash.Equal(highHash) {
			log.Debugf("Getting block headers between %s and %s to %s", lowHash, highHash, flow.peer)

			blockHashes, actualHighHash, err := consensus.GetHashesBetween(lowHash, highHash, maxHeadersPerChunk)
			if err != nil {
				return protocolerrors.Wrapf(true, err, "couldn't get hashes between %s and %s", lowHash, highHash)
			}
			if actualHighHash.Equal(lowHash) {
				break
			}
			log.Debugf("Got %d header hashes above lowHash %s", len(blockHashes), lowHash)

			blockHeaders := make([]externalapi.BlockHeader, len(blockHashes))
			for i, blockHash := range blockHashes {
				blockHeaders[i], err = consensus.GetBlockHeader(blockHash)
				if err != nil {
					return err
				}
			}

			err = flow.outgoingRoute.Enqueue(appmessage.NewBlockHeadersMessage(blockHeaders))
			if err != nil {
				return err
			}

			message, err := flow.incomingRoute.Dequeue()
			if err != nil {
				return err
			}
			if _, ok := message.(*appmessage.MsgRequestNextHeaders); !ok {
				return protocolerrors.Errorf(true, "received unexpected message type. "+
					"expected: %s, got: %s", appmessage.CmdRequestNextHeaders, message.Command())
			}

			lowHash = actualHighHash
		}

		err = flow.outgoingRoute.Enqueue(appmessage.NewMsgDoneHeaders())
		if err != nil {
			return err
		}
	}
}

func (flow *handleRequestHeadersFlow) receiveRequestHeaders() (lowHash, highHash *externalapi.DomainHash, err error) {
	message, err := flow.incomingRoute.Dequeue()
	if err != nil {
		return nil, nil, err
	}
	msgRequestHeaders, ok := message.(*appmessage.MsgRequestHeaders)
	if !ok {
		return nil, nil, protocolerrors.Errorf(true, "received unexpected message type. "+
			"expected: %s, got: %s", appmessage.CmdRequestHeaders, message.Command())
	}
	return msgRequestHeaders.LowHash, msgRequestHeaders.HighHash, nil
}
