package blockrelay

import (
	"sync"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/common"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

type pendingRelayRequest struct {
	request  appmessage.Message
	response chan *externalapi.DomainBlock
}

// RelayResponses routes the responses of a single peer to the concurrent
// HandleRelayInvs flows that asked for them. Blocks are matched to their
// request by hash, and block locator requests are served one at a time.
type RelayResponses struct {
	blockRoute        *router.Route
	blockLocatorRoute *router.Route
	responseTimeout   time.Duration

	pendingLock sync.Mutex
	pending     []*pendingRelayRequest

	locatorLock sync.Mutex

	doneOnce sync.Once
	done     chan struct{}
}

// NewRelayResponses returns a new RelayResponses reading blocks from
// blockRoute and block locators from blockLocatorRoute
func NewRelayResponses(blockRoute, blockLocatorRoute *router.Route) *RelayResponses {
	return &RelayResponses{
		blockRoute:        blockRoute,
		blockLocatorRoute: blockLocatorRoute,
		responseTimeout:   common.DefaultTimeout,
		done:              make(chan struct{}),
	}
}

// HandleRelayBlockResponses delivers every incoming MsgBlock to the flow
// that requested it. A block nobody asked for is a protocol violation.
func HandleRelayBlockResponses(responses *RelayResponses) error {
	defer responses.doneOnce.Do(func() { close(responses.done) })

	for {
		message, err := responses.blockRoute.Dequeue()
		if err != nil {
			return err
		}
		msgBlock, ok := message.(*appmessage.MsgBlock)
		if !ok {
			return protocolerrors.Errorf(true, "received unexpected message type. "+
				"expected: %s, got: %s", appmessage.CmdBlock, message.Command())
		}

		pending, ok := responses.takePending(msgBlock)
		if !ok {
			return protocolerrors.Errorf(true, "got unrequested block")
		}
		pending.response <- msgBlock.Block
	}
}

func (r *RelayResponses) takePending(response appmessage.Message) (*pendingRelayRequest, bool) {
	r.pendingLock.Lock()
	defer r.pendingLock.Unlock()

	for i, pending := range r.pending {
		if appmessage.Correlates(pending.request, response) {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return pending, true
		}
	}
	return nil, false
}

func (r *RelayResponses) addPending(request appmessage.Message) *pendingRelayRequest {
	r.pendingLock.Lock()
	defer r.pendingLock.Unlock()

	pending := &pendingRelayRequest{
		request:  request,
		response: make(chan *externalapi.DomainBlock, 1),
	}
	r.pending = append(r.pending, pending)
	return pending
}

func (r *RelayResponses) removePending(pending *pendingRelayRequest) {
	r.pendingLock.Lock()
	defer r.pendingLock.Unlock()

	for i, current := range r.pending {
		if current == pending {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// requestBlock asks the peer for the block with the given hash and waits
// for it to arrive
func (r *RelayResponses) requestBlock(outgoingRoute *router.Route,
	hash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {

	request := appmessage.NewMsgRequestRelayBlocks([]*externalapi.DomainHash{hash})
	pending := r.addPending(request)
	err := outgoingRoute.Enqueue(request)
	if err != nil {
		r.removePending(pending)
		return nil, err
	}

	select {
	case block := <-pending.response:
		return block, nil
	case <-r.done:
		return nil, errors.WithStack(router.ErrRouteClosed)
	case <-time.After(r.responseTimeout):
		r.removePending(pending)
		return nil, errors.Wrapf(router.ErrTimeout, "got timeout after %s waiting for block %s",
			r.responseTimeout, hash)
	}
}

// requestBlockLocator asks the peer for a block locator from its pruning
// point up to highHash
func (r *RelayResponses) requestBlockLocator(outgoingRoute *router.Route,
	highHash *externalapi.DomainHash, limit uint32) ([]*externalapi.DomainHash, error) {

	r.locatorLock.Lock()
	defer r.locatorLock.Unlock()

	err := outgoingRoute.Enqueue(appmessage.NewMsgRequestBlockLocator(highHash, limit))
	if err != nil {
		return nil, err
	}

	message, err := r.blockLocatorRoute.DequeueWithTimeout(r.responseTimeout)
	if err != nil {
		return nil, err
	}
	msgBlockLocator, ok := message.(*appmessage.MsgBlockLocator)
	if !ok {
		return nil, protocolerrors.Errorf(true, "received unexpected message type. "+
			"expected: %s, got: %s", appmessage.CmdBlockLocator, message.Command())
	}
	return msgBlockLocator.BlockLocatorHashes, nil
}
