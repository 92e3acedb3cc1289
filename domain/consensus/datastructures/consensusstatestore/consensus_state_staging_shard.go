package consensusstatestore

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

type consensusStateStagingShard struct {
	store                     *consensusStateStore
	tipsStaging               []*externalapi.DomainHash
	virtualUTXODiffStaging    externalapi.UTXODiff
	virtualUTXOSetOverride    externalapi.UTXOCollection
	headersSelectedTipStaging *externalapi.DomainHash
}

func (css *consensusStateStore) stagingShard(stagingArea *model.StagingArea) *consensusStateStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDConsensusState, func() model.StagingShard {
		return &consensusStateStagingShard{store: css}
	}).(*consensusStateStagingShard)
}

func (csss *consensusStateStagingShard) Commit(dbTx model.DBTransaction) error {
	if csss.tipsStaging != nil {
		err := csss.store.commitTips(dbTx, csss.tipsStaging)
		if err != nil {
			return err
		}
	}

	if csss.virtualUTXOSetOverride != nil {
		err := csss.store.commitVirtualUTXOSetOverride(dbTx, csss.virtualUTXOSetOverride)
		if err != nil {
			return err
		}
	}

	if csss.virtualUTXODiffStaging != nil {
		err := csss.store.commitVirtualUTXODiff(dbTx, csss.virtualUTXODiffStaging)
		if err != nil {
			return err
		}
	}

	if csss.headersSelectedTipStaging != nil {
		err := csss.store.commitHeadersSelectedTip(dbTx, csss.headersSelectedTipStaging)
		if err != nil {
			return err
		}
	}

	return nil
}

func (csss *consensusStateStagingShard) isStaged() bool {
	return csss.tipsStaging != nil || csss.virtualUTXODiffStaging != nil ||
		csss.virtualUTXOSetOverride != nil || csss.headersSelectedTipStaging != nil
}

func deleteBucket(dbTx model.DBTransaction, bucket *database.Bucket) error {
	cursor, err := dbTx.Cursor(bucket)
	if err != nil {
		return err
	}
	var keys []*database.Key
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			cursor.Close()
			return err
		}
		keys = append(keys, key)
	}
	err = cursor.Close()
	if err != nil {
		return err
	}

	for _, key := range keys {
		err := dbTx.Delete(key)
		if err != nil {
			return err
		}
	}
	return nil
}
