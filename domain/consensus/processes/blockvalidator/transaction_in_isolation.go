package blockvalidator

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/constants"
	"github.com/calico-network/calicod/domain/consensus/utils/transactionhelper"
	"github.com/pkg/errors"
)

func (v *blockValidator) validateTransactionInIsolation(tx *externalapi.DomainTransaction) error {
	isCoinbase := transactionhelper.IsCoinBase(tx)

	if tx.Version > constants.MaxTransactionVersion {
		return errors.Wrapf(ruleerrors.ErrTransactionVersionIsUnknown, "validation failed: unknown transaction version %d",
			tx.Version)
	}

	if isCoinbase {
		return v.checkCoinbaseInIsolation(tx)
	}

	if len(tx.Inputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTxInputs, "transaction has no inputs")
	}

	err := checkDuplicateTransactionInputs(tx)
	if err != nil {
		return err
	}

	return checkTransactionAmountRanges(tx)
}

func (v *blockValidator) checkCoinbaseInIsolation(tx *externalapi.DomainTransaction) error {
	if len(tx.Inputs) != 0 {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase has %d inputs", len(tx.Inputs))
	}

	if uint64(len(tx.Payload)) > v.maxCoinbasePayloadLength {
		return errors.Wrapf(ruleerrors.ErrBadCoinbasePayloadLen, "coinbase transaction script length of %d is out of range "+
			"(max: %d)", len(tx.Payload), v.maxCoinbasePayloadLength)
	}

	_, subsidy, _, err := transactionhelper.ExtractCoinbaseDataBlueScoreAndSubsidy(tx)
	if err != nil {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "%s", err)
	}
	if subsidy > v.baseSubsidy {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase subsidy of %d is above the "+
			"base subsidy of %d", subsidy, v.baseSubsidy)
	}

	err = checkTransactionAmountRanges(tx)
	if err != nil {
		return err
	}

	totalOut := uint64(0)
	for _, output := range tx.Outputs {
		totalOut += output.Value
	}
	if totalOut > subsidy {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase pays %d which is more than "+
			"its subsidy of %d", totalOut, subsidy)
	}
	return nil
}

func checkDuplicateTransactionInputs(tx *externalapi.DomainTransaction) error {
	existingTxOut := make(map[externalapi.DomainOutpoint]struct{})
	for _, txIn := range tx.Inputs {
		if _, exists := existingTxOut[txIn.PreviousOutpoint]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTxInputs, "transaction "+
				"contains duplicate inputs")
		}
		existingTxOut[txIn.PreviousOutpoint] = struct{}{}
	}
	return nil
}

func checkTransactionAmountRanges(tx *externalapi.DomainTransaction) error {
	// Ensure the transaction amounts are in range. Each transaction
	// output must not be zero, and must be less than the max allowed per
	// transaction. Also, the total of all outputs must abide by the same
	// restrictions.
	var totalSpots uint64
	for _, txOut := range tx.Outputs {
		spots := txOut.Value
		if spots == 0 {
			return errors.Wrap(ruleerrors.ErrBadTxOutValue, "zero value outputs are forbidden")
		}

		if spots > constants.MaxSpots {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "transaction output value of %d is "+
				"higher than max allowed value of %d", spots, constants.MaxSpots)
		}

		newTotalSpots := totalSpots + spots
		if newTotalSpots < totalSpots {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"outputs exceeds max allowed value of %d",
				constants.MaxSpots)
		}
		totalSpots = newTotalSpots
		if totalSpots > constants.MaxSpots {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"outputs is %d which is higher than max "+
				"allowed value of %d", totalSpots,
				constants.MaxSpots)
		}
	}

	return nil
}
