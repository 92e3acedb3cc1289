package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/merkle"
	"github.com/calico-network/calicod/domain/consensus/utils/transactionhelper"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

func (csm *consensusStateManager) verifyUTXO(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	pastUTXO externalapi.UTXODiff, acceptedTransactionIDs []*externalapi.DomainTransactionID,
	multiset model.Multiset) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "verifyUTXO")
	defer onEnd()

	block, err := csm.blockStore.Block(csm.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	calculatedUTXOCommitment := multiset.Hash()
	if !block.Header.UTXOCommitment().Equal(calculatedUTXOCommitment) {
		return errors.Wrapf(ruleerrors.ErrBadUTXOCommitment, "block %s UTXO commitment is invalid - block "+
			"header indicates %s, but calculated value is %s", blockHash,
			block.Header.UTXOCommitment(), calculatedUTXOCommitment)
	}

	calculatedAcceptedIDMerkleRoot := merkle.CalculateIDMerkleRoot(acceptedTransactionIDs)
	if !block.Header.AcceptedIDMerkleRoot().Equal(calculatedAcceptedIDMerkleRoot) {
		return errors.Wrapf(ruleerrors.ErrBadAcceptedIDMerkleRoot, "block %s accepted ID merkle root is invalid - "+
			"block header indicates %s, but calculated value is %s", blockHash,
			block.Header.AcceptedIDMerkleRoot(), calculatedAcceptedIDMerkleRoot)
	}

	return csm.validateBlockTransactionsAgainstPastUTXO(stagingArea, block, pastUTXO)
}

func (csm *consensusStateManager) validateBlockTransactionsAgainstPastUTXO(stagingArea *model.StagingArea,
	block *externalapi.DomainBlock, pastUTXO externalapi.UTXODiff) error {

	view := &utxoView{
		csm:         csm,
		stagingArea: stagingArea,
		layers:      []externalapi.UTXODiff{pastUTXO},
	}

	var invalidTransactions []ruleerrors.InvalidTransaction
	for i, transaction := range block.Transactions {
		if i == transactionhelper.CoinbaseTransactionIndex {
			continue
		}
		err := validateTransactionInContext(view, transaction)
		if err != nil {
			if !ruleerrors.IsRuleError(err) {
				return err
			}
			invalidTransactions = append(invalidTransactions,
				ruleerrors.InvalidTransaction{Transaction: transaction, Error: err})
		}
	}
	if len(invalidTransactions) > 0 {
		return ruleerrors.NewErrInvalidTransactionsInNewBlock(invalidTransactions)
	}
	return nil
}

func validateTransactionInContext(view *utxoView, transaction *externalapi.DomainTransaction) error {
	var missingOutpoints []*externalapi.DomainOutpoint
	totalIn := uint64(0)
	for _, input := range transaction.Inputs {
		entry, found, err := view.get(&input.PreviousOutpoint)
		if err != nil {
			return err
		}
		if !found {
			outpoint := input.PreviousOutpoint
			missingOutpoints = append(missingOutpoints, &outpoint)
			continue
		}
		totalIn += entry.Amount()
	}
	if len(missingOutpoints) > 0 {
		return ruleerrors.NewErrMissingTxOut(missingOutpoints)
	}

	totalOut := uint64(0)
	for _, output := range transaction.Outputs {
		totalOut += output.Value
	}
	if totalOut > totalIn {
		return errors.Wrapf(ruleerrors.ErrSpendTooHigh, "total value of all transaction outputs is %d "+
			"which is higher than the input amount of %d", totalOut, totalIn)
	}
	return nil
}
