package pruningstore

import (
	"github.com/calico-network/calicod/domain/consensus/database/binaryserialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

type pruningStagingShard struct {
	store *pruningStore

	pruningPointByIndex      map[uint64]*externalapi.DomainHash
	currentPruningPointIndex *uint64
	newPruningPointUTXOSet   externalapi.UTXOCollection
	newPruningPointProof     *externalapi.PruningPointProof
}

func (ps *pruningStore) stagingShard(stagingArea *model.StagingArea) *pruningStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDPruning, func() model.StagingShard {
		return &pruningStagingShard{
			store:               ps,
			pruningPointByIndex: make(map[uint64]*externalapi.DomainHash),
		}
	}).(*pruningStagingShard)
}

func (pss *pruningStagingShard) Commit(dbTx model.DBTransaction) error {
	for index, hash := range pss.pruningPointByIndex {
		err := dbTx.Put(pss.store.indexAsKey(index), binaryserialization.SerializeHash(hash))
		if err != nil {
			return err
		}
		pss.store.pruningPointByIndexCache.Add(index, hash)
	}

	if pss.currentPruningPointIndex != nil {
		err := dbTx.Put(pss.store.currentPruningPointIndexKey,
			binaryserialization.SerializeChainBlockIndex(*pss.currentPruningPointIndex))
		if err != nil {
			return err
		}
		index := *pss.currentPruningPointIndex
		pss.store.currentPruningPointIndexCache = &index
	}

	if pss.newPruningPointUTXOSet != nil {
		err := pss.store.commitPruningPointUTXOSet(dbTx, pss.newPruningPointUTXOSet)
		if err != nil {
			return err
		}
	}

	if pss.newPruningPointProof != nil {
		err := pss.store.commitPruningPointProof(dbTx, pss.newPruningPointProof)
		if err != nil {
			return err
		}
	}

	return nil
}

func (pss *pruningStagingShard) isStaged() bool {
	return len(pss.pruningPointByIndex) != 0 || pss.currentPruningPointIndex != nil ||
		pss.newPruningPointUTXOSet != nil || pss.newPruningPointProof != nil
}
