package blockrelay

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/common"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

func (flow *handleIBDFlow) ibdWithHeadersProof(
	syncerHeaderSelectedTipHash, relayBlockHash *externalapi.DomainHash, highBlueScore uint64) error {

	err := flow.state.transitionTo(ibdStatePruningProofExchange)
	if err != nil {
		return err
	}

	proof, err := flow.downloadAndValidatePruningPointProof()
	if err != nil {
		return err
	}

	err = flow.Domain().InitStagingConsensus()
	if err != nil {
		return err
	}

	err = flow.downloadHeadersAndPruningUTXOSet(syncerHeaderSelectedTipHash, relayBlockHash, highBlueScore, proof)
	if err != nil {
		log.Infof("IBD with pruning proof from %s was unsuccessful. Deleting the staging consensus. (%s)", flow.peer, err)
		deleteStagingConsensusErr := flow.Domain().DeleteStagingConsensus()
		if deleteStagingConsensusErr != nil {
			return deleteStagingConsensusErr
		}

		return err
	}

	log.Infof("Header download stage of IBD with pruning proof completed successfully from %s. "+
		"Committing the staging consensus and deleting the previous obsolete one if such exists.", flow.peer)
	err = flow.Domain().CommitStagingConsensus()
	if err != nil {
		return err
	}

	return nil
}

func (flow *handleIBDFlow) downloadAndValidatePruningPointProof() (*externalapi.PruningPointProof, error) {
	log.Infof("Downloading the pruning point proof from %s", flow.peer)
	err := flow.outgoingRoute.Enqueue(appmessage.NewMsgRequestPruningPointProof())
	if err != nil {
		return nil, err
	}
	message, err := flow.incomingRoute.DequeueWithTimeout(10 * common.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	pruningPointProofMessage, ok := message.(*appmessage.MsgPruningPointProof)
	if !ok {
		return nil, protocolerrors.Errorf(true, "received unexpected message type. "+
			"expected: %s, got: %s", appmessage.CmdPruningPointProof, message.Command())
	}
	pruningPointProof := pruningPointProofMessage.Proof()

	err = flow.Domain().Consensus().ValidatePruningPointProof(pruningPointProof)
	if err != nil {
		if errors.Is(err, ruleerrors.ErrPruningProofInsufficientBlueWork) {
			return nil, protocolerrors.Wrapf(false, err, "pruning point proof from %s is not better "+
				"than the current state", flow.peer)
		}
		if errors.As(err, &ruleerrors.RuleError{}) {
			return nil, protocolerrors.Wrapf(true, err, "pruning point proof validation failed")
		}
		return nil, err
	}

	return pruningPointProof, nil
}

func (flow *handleIBDFlow) downloadHeadersAndPruningUTXOSet(
	syncerHeaderSelectedTipHash, relayBlockHash *externalapi.DomainHash, highBlueScore uint64,
	proof *externalapi.PruningPointProof) error {

	stagingConsensus := flow.Domain().StagingConsensus()
	err := stagingConsensus.ApplyPruningPointProof(proof)
	if err != nil {
		return err
	}

	proofLevelZero := proof.Headers[0]
	proofPruningPoint := consensushashing.HeaderHash(proofLevelZero[len(proofLevelZero)-1])

	pruningPointHeaders, err := flow.receivePruningPoints()
	if err != nil {
		return err
	}

	err = flow.validatePruningPoints(proofPruningPoint, pruningPointHeaders)
	if err != nil {
		return err
	}

	err = stagingConsensus.ImportPruningPoints(pruningPointHeaders)
	if err != nil {
		return err
	}

	err = flow.receiveAndInsertBlocksWithTrustedData(stagingConsensus, proofPruningPoint)
	if err != nil {
		return err
	}

	log.Infof("Downloading the UTXO set of pruning point %s from %s", proofPruningPoint, flow.peer)
	err = stagingConsensus.ClearImportedPruningPointData()
	if err != nil {
		return err
	}

	err = flow.outgoingRoute.Enqueue(appmessage.NewMsgRequestPruningPointUTXOSet(proofPruningPoint))
	if err != nil {
		return err
	}

	receivedAll, err := flow.receiveAndInsertPruningPointUTXOSet(stagingConsensus, proofPruningPoint)
	if err != nil {
		return err
	}
	if !receivedAll {
		return protocolerrors.Errorf(false, "pruning point %s is no longer the pruning point of %s",
			proofPruningPoint, flow.peer)
	}

	err = stagingConsensus.ValidateAndInsertImportedPruningPoint(proofPruningPoint)
	if err != nil {
		return protocolerrors.ConvertToBanningProtocolErrorIfRuleError(err,
			"error with pruning point UTXO set of %s", proofPruningPoint)
	}

	err = flow.state.transitionTo(ibdStateHeaderSync)
	if err != nil {
		return err
	}

	return flow.syncPruningPointFutureHeaders(stagingConsensus, syncerHeaderSelectedTipHash, proofPruningPoint,
		relayBlockHash, highBlueScore)
}

func (flow *handleIBDFlow) receivePruningPoints() ([]externalapi.BlockHeader, error) {
	err := flow.outgoingRoute.Enqueue(appmessage.NewMsgRequestPruningPointAndItsAnticone())
	if err != nil {
		return nil, err
	}

	message, err := flow.incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
	if err != nil {
		return nil, err
	}

	msgPruningPoints, ok := message.(*appmessage.MsgPruningPoints)
	if !ok {
		return nil, protocolerrors.Errorf(true, "received unexpected message type. "+
			"expected: %s, got: %s", appmessage.CmdPruningPoints, message.Command())
	}

	return msgPruningPoints.Headers, nil
}

func (flow *handleIBDFlow) validatePruningPoints(proofPruningPoint *externalapi.DomainHash,
	pruningPointHeaders []externalapi.BlockHeader) error {

	if len(pruningPointHeaders) == 0 {
		return protocolerrors.Errorf(true, "expected at least one pruning point header")
	}

	lastPruningPoint := consensushashing.HeaderHash(pruningPointHeaders[len(pruningPointHeaders)-1])
	if !lastPruningPoint.Equal(proofPruningPoint) {
		return protocolerrors.Errorf(true, "the proof pruning point is not equal to the last pruning "+
			"point in the list")
	}

	for i := 1; i < len(pruningPointHeaders); i++ {
		if pruningPointHeaders[i].BlueWork().Cmp(pruningPointHeaders[i-1].BlueWork()) <= 0 {
			return protocolerrors.Errorf(true, "pruning points are not ordered by increasing blue work")
		}
	}
	return nil
}

func (flow *handleIBDFlow) receiveAndInsertBlocksWithTrustedData(consensus externalapi.Consensus,
	proofPruningPoint *externalapi.DomainHash) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "receiveAndInsertBlocksWithTrustedData")
	defer onEnd()

	receivedPruningPoint := false
	blocksReceived := 0
	for {
		message, err := flow.incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
		if err != nil {
			return err
		}

		switch message := message.(type) {
		case *appmessage.MsgBlockWithTrustedData:
			blockWithTrustedData := message.BlockWithTrustedData
			if blockWithTrustedData == nil || blockWithTrustedData.Block == nil {
				return protocolerrors.Errorf(true, "received an empty block with trusted data")
			}
			blockHash := consensushashing.BlockHash(blockWithTrustedData.Block)
			if blockHash.Equal(proofPruningPoint) {
				receivedPruningPoint = true
			}

			err := consensus.ValidateAndInsertBlockWithTrustedData(blockWithTrustedData)
			if err != nil {
				if errors.Is(err, ruleerrors.ErrDuplicateBlock) {
					log.Debugf("Skipping block with trusted data %s as it is a duplicate", blockHash)
					continue
				}
				return protocolerrors.ConvertToBanningProtocolErrorIfRuleError(err,
					"invalid block with trusted data %s", blockHash)
			}
			blocksReceived++

		case *appmessage.MsgDoneBlocksWithTrustedData:
			if !receivedPruningPoint {
				return protocolerrors.Errorf(true, "the pruning point %s was not among "+
					"the blocks with trusted data", proofPruningPoint)
			}
			log.Debugf("Finished receiving %d blocks with trusted data", blocksReceived)
			return nil

		default:
			return protocolerrors.Errorf(true, "received unexpected message type. "+
				"expected: %s or %s, got: %s", appmessage.CmdBlockWithTrustedData,
				appmessage.CmdDoneBlocksWithTrustedData, message.Command())
		}
	}
}

func (flow *handleIBDFlow) receiveAndInsertPruningPointUTXOSet(
	consensus externalapi.Consensus, pruningPointHash *externalapi.DomainHash) (bool, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "receiveAndInsertPruningPointUTXOSet")
	defer onEnd()

	receivedChunkCount := 0
	receivedUTXOCount := 0
	for {
		message, err := flow.incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
		if err != nil {
			return false, err
		}

		switch message := message.(type) {
		case *appmessage.MsgPruningPointUTXOSetChunk:
			receivedUTXOCount += len(message.OutpointAndUTXOEntryPairs)
			err := consensus.AppendImportedPruningPointUTXOs(message.OutpointAndUTXOEntryPairs)
			if err != nil {
				return false, err
			}

			receivedChunkCount++
			if receivedChunkCount%ibdBatchSize == 0 {
				log.Debugf("Received %d UTXO set chunks so far, totaling in %d UTXOs",
					receivedChunkCount, receivedUTXOCount)

				err := flow.outgoingRoute.Enqueue(appmessage.NewMsgRequestNextPruningPointUTXOSetChunk())
				if err != nil {
					return false, err
				}
			}

		case *appmessage.MsgDonePruningPointUTXOSetChunks:
			log.Infof("Finished receiving the UTXO set. Total UTXOs: %d", receivedUTXOCount)
			return true, nil

		case *appmessage.MsgUnexpectedPruningPoint:
			log.Infof("Could not receive the next UTXO chunk because the pruning point %s "+
				"is no longer the pruning point of peer %s", pruningPointHash, flow.peer)
			return false, nil

		default:
			return false, protocolerrors.Errorf(true, "received unexpected message type. "+
				"expected: %s or %s or %s, got: %s", appmessage.CmdPruningPointUTXOSetChunk,
				appmessage.CmdDonePruningPointUTXOSetChunks, appmessage.CmdUnexpectedPruningPoint, message.Command(),
			)
		}
	}
}
