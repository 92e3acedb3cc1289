package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

// utxoView resolves outpoints through a stack of diffs on top of the virtual UTXO set.
// mutableLayer, when set, is consulted first, then layers from last to first.
type utxoView struct {
	csm          *consensusStateManager
	stagingArea  *model.StagingArea
	layers       []externalapi.UTXODiff
	mutableLayer externalapi.MutableUTXODiff
}

func (v *utxoView) get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error) {
	if v.mutableLayer != nil {
		if entry, ok := v.mutableLayer.ToAdd().Get(outpoint); ok {
			return entry, true, nil
		}
		if v.mutableLayer.ToRemove().Contains(outpoint) {
			return nil, false, nil
		}
	}
	for i := len(v.layers) - 1; i >= 0; i-- {
		if entry, ok := v.layers[i].ToAdd().Get(outpoint); ok {
			return entry, true, nil
		}
		if v.layers[i].ToRemove().Contains(outpoint) {
			return nil, false, nil
		}
	}

	entry, err := v.csm.consensusStateStore.UTXOByOutpoint(v.csm.databaseContext, v.stagingArea, outpoint)
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entry, true, nil
}

func (v *utxoView) has(outpoint *externalapi.DomainOutpoint) (bool, error) {
	_, found, err := v.get(outpoint)
	return found, err
}
