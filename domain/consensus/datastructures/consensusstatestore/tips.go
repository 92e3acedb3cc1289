package consensusstatestore

import (
	"github.com/calico-network/calicod/domain/consensus/database/serialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

func (css *consensusStateStore) StageTips(stagingArea *model.StagingArea, tipHashes []*externalapi.DomainHash) {
	css.stagingShard(stagingArea).tipsStaging = externalapi.CloneHashes(tipHashes)
}

func (css *consensusStateStore) Tips(stagingArea *model.StagingArea, dbContext model.DBReader) ([]*externalapi.DomainHash, error) {
	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.tipsStaging != nil {
		return externalapi.CloneHashes(stagingShard.tipsStaging), nil
	}
	if css.tipsCache != nil {
		return externalapi.CloneHashes(css.tipsCache), nil
	}

	tipsBytes, err := dbContext.Get(css.tipsKey)
	if err != nil {
		return nil, err
	}
	tips, err := serialization.DeserializeHashes(tipsBytes)
	if err != nil {
		return nil, err
	}
	css.tipsCache = tips
	return externalapi.CloneHashes(tips), nil
}

func (css *consensusStateStore) commitTips(dbTx model.DBTransaction, tips []*externalapi.DomainHash) error {
	tipsBytes, err := serialization.SerializeHashes(tips)
	if err != nil {
		return err
	}
	err = dbTx.Put(css.tipsKey, tipsBytes)
	if err != nil {
		return err
	}
	css.tipsCache = tips
	return nil
}
