package utxodiffstore

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

type utxoDiffStagingShard struct {
	store    *utxoDiffStore
	toAdd    map[externalapi.DomainHash]externalapi.UTXODiff
	toDelete map[externalapi.DomainHash]struct{}
}

func (uds *utxoDiffStore) stagingShard(stagingArea *model.StagingArea) *utxoDiffStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDUTXODiff, func() model.StagingShard {
		return &utxoDiffStagingShard{
			store:    uds,
			toAdd:    make(map[externalapi.DomainHash]externalapi.UTXODiff),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*utxoDiffStagingShard)
}

func (udss *utxoDiffStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, utxoDiff := range udss.toAdd {
		hash := hash
		utxoDiffBytes, err := udss.store.serializeUTXODiff(utxoDiff)
		if err != nil {
			return err
		}
		err = dbTx.Put(udss.store.hashAsKey(&hash), utxoDiffBytes)
		if err != nil {
			return err
		}
		udss.store.cache.Add(&hash, utxoDiff)
	}

	for hash := range udss.toDelete {
		hash := hash
		err := dbTx.Delete(udss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
		udss.store.cache.Remove(&hash)
	}

	return nil
}

func (udss *utxoDiffStagingShard) isStaged() bool {
	return len(udss.toAdd) != 0 || len(udss.toDelete) != 0
}
