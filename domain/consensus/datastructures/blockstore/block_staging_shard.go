package blockstore

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

type blockStagingShard struct {
	store    *blockStore
	toAdd    map[externalapi.DomainHash]*externalapi.DomainBlock
	toDelete map[externalapi.DomainHash]struct{}
}

func (bs *blockStore) stagingShard(stagingArea *model.StagingArea) *blockStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDBlock, func() model.StagingShard {
		return &blockStagingShard{
			store:    bs,
			toAdd:    make(map[externalapi.DomainHash]*externalapi.DomainBlock),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*blockStagingShard)
}

func (bss *blockStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, block := range bss.toAdd {
		hash := hash
		blockBytes, err := bss.store.serializeBlock(block)
		if err != nil {
			return err
		}
		err = dbTx.Put(bss.store.hashAsKey(&hash), blockBytes)
		if err != nil {
			return err
		}
		bss.store.cache.Add(&hash, block)
	}

	for hash := range bss.toDelete {
		hash := hash
		err := dbTx.Delete(bss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
		bss.store.cache.Remove(&hash)
	}

	return bss.commitCount(dbTx)
}

func (bss *blockStagingShard) commitCount(dbTx model.DBTransaction) error {
	count := bss.store.count(bss)
	countBytes, err := serializeBlockCount(count)
	if err != nil {
		return err
	}
	err = dbTx.Put(bss.store.countKey, countBytes)
	if err != nil {
		return err
	}
	bss.store.countCached = count
	return nil
}

func (bss *blockStagingShard) isStaged() bool {
	return len(bss.toAdd) != 0 || len(bss.toDelete) != 0
}
