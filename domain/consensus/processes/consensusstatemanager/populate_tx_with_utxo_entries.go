package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
)

// PopulateTransactionWithUTXOEntries populates the transaction inputs with their
// UTXO entries from the virtual UTXO set. Inputs that already carry an entry are skipped.
func (csm *consensusStateManager) PopulateTransactionWithUTXOEntries(stagingArea *model.StagingArea,
	transaction *externalapi.DomainTransaction) error {

	view := &utxoView{csm: csm, stagingArea: stagingArea}

	var missingOutpoints []*externalapi.DomainOutpoint
	for _, input := range transaction.Inputs {
		if input.UTXOEntry != nil {
			continue
		}

		entry, found, err := view.get(&input.PreviousOutpoint)
		if err != nil {
			return err
		}
		if !found {
			outpoint := input.PreviousOutpoint
			missingOutpoints = append(missingOutpoints, &outpoint)
			continue
		}
		input.UTXOEntry = entry
	}

	if len(missingOutpoints) > 0 {
		return ruleerrors.NewErrMissingTxOut(missingOutpoints)
	}
	return nil
}
