package blockrelay

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/common"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

// ibdBatchSize is the number of bodies requested at once, and the number of
// UTXO set chunks received before asking for more
const ibdBatchSize = 99

// IBDContext is the interface for the context needed for the HandleIBD flow.
type IBDContext interface {
	Domain() domain.Domain
	Config() *config.Config
	OnNewBlock(block *externalapi.DomainBlock) error
	IsIBDRunning() bool
	TrySetIBDRunning(ibdPeer *peerpkg.Peer) bool
	UnsetIBDRunning()
	OnIBDSuccess(peer *peerpkg.Peer)
	OnIBDFailure(failedPeer *peerpkg.Peer, relayBlock *externalapi.DomainBlock, ibdErr error) bool
	IsRecoverableError(err error) bool
	ShutdownChan() <-chan struct{}
}

type handleIBDFlow struct {
	IBDContext
	incomingRoute, outgoingRoute *router.Route
	peer                         *peerpkg.Peer
	state                        *ibdStateMachine
}

// HandleIBD handles IBD
func HandleIBD(context IBDContext, incomingRoute *router.Route, outgoingRoute *router.Route,
	peer *peerpkg.Peer) error {

	flow := &handleIBDFlow{
		IBDContext:    context,
		incomingRoute: incomingRoute,
		outgoingRoute: outgoingRoute,
		peer:          peer,
		state:         newIBDStateMachine(peer.String()),
	}
	return flow.start()
}

func (flow *handleIBDFlow) start() error {
	for {
		// Wait for IBD requests triggered by other flows
		var block *externalapi.DomainBlock
		select {
		case block = <-flow.peer.IBDRequestChannel():
		case <-flow.peer.Closed():
			return nil
		case <-flow.ShutdownChan():
			return nil
		}

		err := flow.runIBDIfNotRunning(block)
		if err == nil {
			continue
		}

		shouldDisconnect := flow.OnIBDFailure(flow.peer, block, err)
		if errors.Is(err, router.ErrRouteClosed) || shouldDisconnect || !flow.IsRecoverableError(err) {
			return err
		}
		log.Infof("IBD with peer %s failed, the peer stays connected: %s", flow.peer, err)
	}
}

func (flow *handleIBDFlow) runIBDIfNotRunning(block *externalapi.DomainBlock) error {
	wasIBDNotRunning := flow.TrySetIBDRunning(flow.peer)
	if !wasIBDNotRunning {
		log.Debugf("IBD is already running")
		return nil
	}

	isFinishedSuccessfully := false
	defer func() {
		flow.UnsetIBDRunning()
		flow.state.reset()
		flow.logIBDFinished(isFinishedSuccessfully)
	}()

	relayBlockHash := consensushashing.BlockHash(block)

	log.Debugf("IBD started with peer %s and relayBlockHash %s", flow.peer, relayBlockHash)
	err := flow.state.transitionTo(ibdStateNegotiateLocator)
	if err != nil {
		return err
	}

	syncerHeaderSelectedTipHash, highestKnownSyncerChainHash, err := flow.negotiateHighestSharedChainBlock()
	if err != nil {
		return err
	}

	log.Debugf("Found highest known syncer chain block %s from peer %s",
		highestKnownSyncerChainHash, flow.peer)

	shouldDownloadHeadersProof, shouldSync, err := flow.shouldSyncAndShouldDownloadHeadersProof(
		block, highestKnownSyncerChainHash)
	if err != nil {
		return err
	}

	if !shouldSync {
		isFinishedSuccessfully = true
		flow.OnIBDSuccess(flow.peer)
		return flow.state.transitionTo(ibdStateSynced)
	}

	if shouldDownloadHeadersProof {
		log.Infof("Starting IBD with headers proof")
		err := flow.ibdWithHeadersProof(syncerHeaderSelectedTipHash, relayBlockHash, block.Header.BlueScore())
		if err != nil {
			return err
		}
	} else {
		err = flow.state.transitionTo(ibdStateHeaderSync)
		if err != nil {
			return err
		}
		err = flow.syncPruningPointFutureHeaders(flow.Domain().Consensus(),
			syncerHeaderSelectedTipHash, highestKnownSyncerChainHash, relayBlockHash, block.Header.BlueScore())
		if err != nil {
			return err
		}
	}

	err = flow.state.transitionTo(ibdStateBlockDownload)
	if err != nil {
		return err
	}
	err = flow.syncMissingBlockBodies(relayBlockHash)
	if err != nil {
		return err
	}

	err = flow.OnNewBlock(block)
	if err != nil {
		return err
	}

	log.Debugf("Finished syncing blocks up to %s", relayBlockHash)
	isFinishedSuccessfully = true
	flow.OnIBDSuccess(flow.peer)
	return flow.state.transitionTo(ibdStateSynced)
}

func (flow *handleIBDFlow) logIBDFinished(isFinishedSuccessfully bool) {
	successString := "successfully"
	if !isFinishedSuccessfully {
		successString = "(interrupted)"
	}
	log.Infof("IBD with peer %s finished %s", flow.peer, successString)
}

// negotiateHighestSharedChainBlock finds max(past(syncee) ∩ chain(syncer)).
// It requests the full selected chain block locator from the syncer, finds
// the highest block it knows, and repeats the locator step over the narrowed
// range until the two neighbours are found. A nil highest known hash means
// the node shares no block with the syncer's locator.
func (flow *handleIBDFlow) negotiateHighestSharedChainBlock() (
	syncerHeaderSelectedTipHash, highestKnownSyncerChainHash *externalapi.DomainHash, err error) {

	locatorHashes, err := flow.getInitialSyncerChainBlockLocator()
	if err != nil {
		return nil, nil, err
	}
	syncerHeaderSelectedTipHash = locatorHashes[0]
	for {
		var lowestUnknownSyncerChainHash, currentHighestKnownSyncerChainHash *externalapi.DomainHash
		for _, syncerChainHash := range locatorHashes {
			info, err := flow.Domain().Consensus().GetBlockInfo(syncerChainHash)
			if err != nil {
				return nil, nil, err
			}
			if info.HasHeader() {
				currentHighestKnownSyncerChainHash = syncerChainHash
				break
			}
			lowestUnknownSyncerChainHash = syncerChainHash
		}
		// No shared block, break
		if currentHighestKnownSyncerChainHash == nil {
			return syncerHeaderSelectedTipHash, nil, nil
		}
		// No point in zooming further
		if lowestUnknownSyncerChainHash == nil || len(locatorHashes) == 1 {
			return syncerHeaderSelectedTipHash, currentHighestKnownSyncerChainHash, nil
		}
		// Zoom in
		locatorHashes, err = flow.getSyncerChainBlockLocator(
			currentHighestKnownSyncerChainHash, lowestUnknownSyncerChainHash)
		if err != nil {
			return nil, nil, err
		}
		if len(locatorHashes) == 2 {
			if !locatorHashes[0].Equal(lowestUnknownSyncerChainHash) ||
				!locatorHashes[1].Equal(currentHighestKnownSyncerChainHash) {
				return nil, nil, protocolerrors.Errorf(true, "Expecting the high and low "+
					"hashes to match the locatorHashes if len(locatorHashes) is 2")
			}
			// We found our search target
			return syncerHeaderSelectedTipHash, currentHighestKnownSyncerChainHash, nil
		}
		if len(locatorHashes) == 0 {
			// An empty locator signals that the syncer chain was modified and no longer contains one of
			// the queried hashes, so we restart the search
			locatorHashes, err = flow.getInitialSyncerChainBlockLocator()
			if err != nil {
				return nil, nil, err
			}
			syncerHeaderSelectedTipHash = locatorHashes[0]
		}
	}
}

func (flow *handleIBDFlow) getInitialSyncerChainBlockLocator() ([]*externalapi.DomainHash, error) {
	// Nil hashes indicate that the full chain is queried
	locatorHashes, err := flow.getSyncerChainBlockLocator(nil, nil)
	if err != nil {
		return nil, err
	}
	if len(locatorHashes) == 0 {
		return nil, protocolerrors.Errorf(true, "Expecting initial syncer chain block locator "+
			"to contain at least one element")
	}
	return locatorHashes, nil
}

func (flow *handleIBDFlow) getSyncerChainBlockLocator(
	lowHash, highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	requestIBDChainBlockLocatorMessage := appmessage.NewMsgRequestIBDChainBlockLocator(lowHash, highHash)
	err := flow.outgoingRoute.Enqueue(requestIBDChainBlockLocatorMessage)
	if err != nil {
		return nil, err
	}
	message, err := flow.incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	switch message := message.(type) {
	case *appmessage.MsgIBDChainBlockLocator:
		return message.BlockLocatorHashes, nil
	default:
		return nil, protocolerrors.Errorf(true, "received unexpected message type. "+
			"expected: %s, got: %s", appmessage.CmdIBDChainBlockLocator, message.Command())
	}
}

// shouldSyncAndShouldDownloadHeadersProof decides between plain header sync
// and the pruning proof path. The proof is needed when no block is shared
// with the syncer's chain, or when the relay block is more than a pruning
// depth ahead of the highest shared one.
func (flow *handleIBDFlow) shouldSyncAndShouldDownloadHeadersProof(relayBlock *externalapi.DomainBlock,
	highestKnownSyncerChainHash *externalapi.DomainHash) (shouldDownload, shouldSync bool, err error) {

	relayBlockInfo, err := flow.Domain().Consensus().GetBlockInfo(consensushashing.BlockHash(relayBlock))
	if err != nil {
		return false, false, err
	}
	if relayBlockInfo.HasBody() {
		log.Debugf("The relay block is already known with its body, nothing to sync")
		return false, false, nil
	}

	if highestKnownSyncerChainHash == nil {
		return true, true, nil
	}

	highestSharedBlockHeader, err := flow.Domain().Consensus().GetBlockHeader(highestKnownSyncerChainHash)
	if err != nil {
		return false, false, err
	}
	pruningDepth := flow.Config().NetParams().PruningDepth
	if relayBlock.Header.BlueScore() >= highestSharedBlockHeader.BlueScore()+pruningDepth {
		return true, true, nil
	}
	return false, true, nil
}

func (flow *handleIBDFlow) syncPruningPointFutureHeaders(consensus externalapi.Consensus,
	syncerHeaderSelectedTipHash, highestKnownSyncerChainHash, relayBlockHash *externalapi.DomainHash,
	highBlockBlueScore uint64) error {

	log.Infof("Downloading headers from %s", flow.peer)

	err := flow.outgoingRoute.Enqueue(appmessage.NewMsgRequestHeaders(highestKnownSyncerChainHash, syncerHeaderSelectedTipHash))
	if err != nil {
		return err
	}

	highestSharedBlockHeader, err := consensus.GetBlockHeader(highestKnownSyncerChainHash)
	if err != nil {
		return err
	}
	progressReporter := newIBDProgressReporter(highestSharedBlockHeader.BlueScore(), highBlockBlueScore, "block headers")

	// Keep a short queue of BlockHeadersMessages so that there's
	// never a moment when the node is not validating and inserting
	// headers
	blockHeadersMessageChan := make(chan *appmessage.MsgBlockHeaders, 2)
	errChan := make(chan error, 1)
	stopChan := make(chan struct{})
	defer close(stopChan)
	spawn("handleIBDFlow-syncPruningPointFutureHeaders", func() {
		for {
			blockHeadersMessage, doneIBD, err := flow.receiveHeaders()
			if err != nil {
				errChan <- err
				return
			}
			if doneIBD {
				close(blockHeadersMessageChan)
				return
			}

			select {
			case blockHeadersMessageChan <- blockHeadersMessage:
			case <-stopChan:
				return
			}

			err = flow.outgoingRoute.Enqueue(appmessage.NewMsgRequestNextHeaders())
			if err != nil {
				errChan <- err
				return
			}
		}
	})

	for {
		select {
		case blockHeadersMessage, ok := <-blockHeadersMessageChan:
			if !ok {
				return flow.ensureRelayBlockHeader(consensus, syncerHeaderSelectedTipHash, relayBlockHash)
			}
			for _, header := range blockHeadersMessage.BlockHeaders {
				err = flow.processHeader(consensus, header)
				if err != nil {
					return err
				}
			}

			if len(blockHeadersMessage.BlockHeaders) > 0 {
				lastReceivedHeader := blockHeadersMessage.BlockHeaders[len(blockHeadersMessage.BlockHeaders)-1]
				progressReporter.reportProgress(len(blockHeadersMessage.BlockHeaders), lastReceivedHeader.BlueScore())
			}
		case err := <-errChan:
			return err
		}
	}
}

// ensureRelayBlockHeader makes sure the relay block header arrived. A relay
// block outside the past of the syncer's headers selected tip is fetched
// with an anticone request, which is bounded by a single mergeset.
func (flow *handleIBDFlow) ensureRelayBlockHeader(consensus externalapi.Consensus,
	syncerHeaderSelectedTipHash, relayBlockHash *externalapi.DomainHash) error {

	relayBlockInfo, err := consensus.GetBlockInfo(relayBlockHash)
	if err != nil {
		return err
	}
	if !relayBlockInfo.Exists {
		err = flow.outgoingRoute.Enqueue(appmessage.NewMsgRequestAnticone(syncerHeaderSelectedTipHash, relayBlockHash))
		if err != nil {
			return err
		}
		anticoneHeadersMessage, anticoneDone, err := flow.receiveHeaders()
		if err != nil {
			return err
		}
		if anticoneDone {
			return protocolerrors.Errorf(true,
				"Expected one anticone header chunk for anticone(%s) ∩ past(%s)",
				syncerHeaderSelectedTipHash, relayBlockHash)
		}
		_, doneHeaders, err := flow.receiveHeaders()
		if err != nil {
			return err
		}
		if !doneHeaders {
			return protocolerrors.Errorf(true,
				"Expected only one anticone header chunk for anticone(%s) ∩ past(%s)",
				syncerHeaderSelectedTipHash, relayBlockHash)
		}
		for _, header := range anticoneHeadersMessage.BlockHeaders {
			err = flow.processHeader(consensus, header)
			if err != nil {
				return err
			}
		}
	}

	// If the relayBlockHash has still not been received, the peer is misbehaving
	relayBlockInfo, err = consensus.GetBlockInfo(relayBlockHash)
	if err != nil {
		return err
	}
	if !relayBlockInfo.Exists {
		return protocolerrors.Errorf(true, "did not receive "+
			"relayBlockHash block %s from peer %s during block download", relayBlockHash, flow.peer)
	}
	return nil
}

func (flow *handleIBDFlow) receiveHeaders() (msgBlockHeaders *appmessage.MsgBlockHeaders, doneHeaders bool, err error) {
	message, err := flow.incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
	if err != nil {
		return nil, false, err
	}
	switch message := message.(type) {
	case *appmessage.MsgBlockHeaders:
		return message, false, nil
	case *appmessage.MsgDoneHeaders:
		return nil, true, nil
	default:
		return nil, false,
			protocolerrors.Errorf(true, "received unexpected message type. "+
				"expected: %s or %s, got: %s",
				appmessage.CmdBlockHeaders,
				appmessage.CmdDoneHeaders,
				message.Command())
	}
}

// processHeader inserts a single header. Headers arrive in topological
// order, so a header whose parents are unknown is a gap in the syncer's
// response and gets the syncer banned.
func (flow *handleIBDFlow) processHeader(consensus externalapi.Consensus, header externalapi.BlockHeader) error {
	block := &externalapi.DomainBlock{
		Header:       header,
		Transactions: nil,
	}

	blockHash := consensushashing.BlockHash(block)
	blockInfo, err := consensus.GetBlockInfo(blockHash)
	if err != nil {
		return err
	}
	if blockInfo.Exists {
		log.Debugf("Block header %s is already in the DAG. Skipping...", blockHash)
		return nil
	}
	_, err = consensus.ValidateAndInsertBlock(block, false)
	if err != nil {
		if !errors.As(err, &ruleerrors.RuleError{}) {
			return errors.Wrapf(err, "failed to process header %s during IBD", blockHash)
		}

		if errors.Is(err, ruleerrors.ErrDuplicateBlock) {
			log.Debugf("Skipping block header %s as it is a duplicate", blockHash)
		} else {
			log.Infof("Rejected block header %s from %s during IBD: %s", blockHash, flow.peer, err)
			return protocolerrors.Wrapf(true, err, "got invalid block header %s during IBD", blockHash)
		}
	}

	return nil
}

func (flow *handleIBDFlow) syncMissingBlockBodies(highHash *externalapi.DomainHash) error {
	hashes, err := flow.Domain().Consensus().GetMissingBlockBodyHashes(highHash)
	if err != nil {
		return err
	}
	if len(hashes) == 0 {
		// Blocks can be inserted inside the DAG during IBD if those were requested before IBD started.
		// In rare cases, all the IBD blocks might be already inserted by the time we reach this point.
		// In these cases - GetMissingBlockBodyHashes would return an empty array.
		log.Debugf("No missing block body hashes found.")
		return nil
	}

	lowBlockHeader, err := flow.Domain().Consensus().GetBlockHeader(hashes[0])
	if err != nil {
		return err
	}
	highBlockHeader, err := flow.Domain().Consensus().GetBlockHeader(hashes[len(hashes)-1])
	if err != nil {
		return err
	}
	progressReporter := newIBDProgressReporter(lowBlockHeader.BlueScore(), highBlockHeader.BlueScore(), "blocks")
	highestProcessedBlueScore := lowBlockHeader.BlueScore()

	for offset := 0; offset < len(hashes); offset += ibdBatchSize {
		var hashesToRequest []*externalapi.DomainHash
		if offset+ibdBatchSize < len(hashes) {
			hashesToRequest = hashes[offset : offset+ibdBatchSize]
		} else {
			hashesToRequest = hashes[offset:]
		}

		err := flow.outgoingRoute.Enqueue(appmessage.NewMsgRequestIBDBlocks(hashesToRequest))
		if err != nil {
			return err
		}

		for _, expectedHash := range hashesToRequest {
			message, err := flow.incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
			if err != nil {
				return err
			}

			msgIBDBlock, ok := message.(*appmessage.MsgIBDBlock)
			if !ok {
				return protocolerrors.Errorf(true, "received unexpected message type. "+
					"expected: %s, got: %s", appmessage.CmdIBDBlock, message.Command())
			}

			block := msgIBDBlock.Block
			blockHash := consensushashing.BlockHash(block)
			if !expectedHash.Equal(blockHash) {
				return protocolerrors.Errorf(true, "expected block %s but got %s", expectedHash, blockHash)
			}

			err = flow.banIfBlockIsHeaderOnly(block)
			if err != nil {
				return err
			}

			_, err = flow.Domain().Consensus().ValidateAndInsertBlock(block, false)
			if err != nil {
				if errors.Is(err, ruleerrors.ErrDuplicateBlock) {
					log.Debugf("Skipping IBD Block %s as it has already been added to the DAG", blockHash)
					continue
				}
				return protocolerrors.ConvertToBanningProtocolErrorIfRuleError(err, "invalid block %s", blockHash)
			}

			highestProcessedBlueScore = block.Header.BlueScore()
		}

		progressReporter.reportProgress(len(hashesToRequest), highestProcessedBlueScore)
	}

	return flow.resolveVirtual()
}

func (flow *handleIBDFlow) banIfBlockIsHeaderOnly(block *externalapi.DomainBlock) error {
	if len(block.Transactions) == 0 {
		return protocolerrors.Errorf(true, "sent header of %s block where expected block with body",
			consensushashing.BlockHash(block))
	}

	return nil
}

func (flow *handleIBDFlow) resolveVirtual() error {
	log.Infof("Resolving virtual")
	virtualChangeSet, err := flow.Domain().Consensus().ResolveVirtual()
	if err != nil {
		return err
	}
	if virtualChangeSet != nil && virtualChangeSet.VirtualSelectedParentChainChanges != nil {
		log.Infof("Resolved virtual, %d blocks were added to the selected chain",
			len(virtualChangeSet.VirtualSelectedParentChainChanges.Added))
	}
	return nil
}
