package selectedchainstore

import (
	"github.com/calico-network/calicod/domain/consensus/database/binaryserialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

type selectedChainStagingShard struct {
	store          *selectedChainStore
	addedByHash    map[externalapi.DomainHash]uint64
	removedByHash  map[externalapi.DomainHash]struct{}
	addedByIndex   map[uint64]*externalapi.DomainHash
	removedByIndex map[uint64]struct{}

	isHighestStaged bool
	hasHighest      bool
	highest         uint64
}

func (scs *selectedChainStore) stagingShard(stagingArea *model.StagingArea) *selectedChainStagingShard {
	return stagingArea.GetOrCreateShard(scs.shardID, func() model.StagingShard {
		return &selectedChainStagingShard{
			store:          scs,
			addedByHash:    make(map[externalapi.DomainHash]uint64),
			removedByHash:  make(map[externalapi.DomainHash]struct{}),
			addedByIndex:   make(map[uint64]*externalapi.DomainHash),
			removedByIndex: make(map[uint64]struct{}),
		}
	}).(*selectedChainStagingShard)
}

func (scss *selectedChainStagingShard) Commit(dbTx model.DBTransaction) error {
	if !scss.isStaged() {
		return nil
	}

	for hash := range scss.removedByHash {
		hashCopy := hash
		err := dbTx.Delete(scss.store.hashAsKey(&hashCopy))
		if err != nil {
			return err
		}
		scss.store.cacheByHash.Remove(&hashCopy)
	}

	for index := range scss.removedByIndex {
		err := dbTx.Delete(scss.store.indexAsKey(index))
		if err != nil {
			return err
		}
		scss.store.cacheByIndex.Remove(index)
	}

	for hash, index := range scss.addedByHash {
		hashCopy := hash
		err := dbTx.Put(scss.store.hashAsKey(&hashCopy), binaryserialization.SerializeChainBlockIndex(index))
		if err != nil {
			return err
		}

		err = dbTx.Put(scss.store.indexAsKey(index), binaryserialization.SerializeHash(&hashCopy))
		if err != nil {
			return err
		}

		scss.store.cacheByHash.Add(&hashCopy, index)
		scss.store.cacheByIndex.Add(index, &hashCopy)
	}

	if !scss.hasHighest {
		err := dbTx.Delete(scss.store.highestChainBlockIndexKey)
		if err != nil {
			return err
		}
		scss.store.highestCache = nil
		return nil
	}

	err := dbTx.Put(scss.store.highestChainBlockIndexKey, binaryserialization.SerializeChainBlockIndex(scss.highest))
	if err != nil {
		return err
	}
	highest := scss.highest
	scss.store.highestCache = &highest
	return nil
}

func (scss *selectedChainStagingShard) isStaged() bool {
	return scss.isHighestStaged
}
