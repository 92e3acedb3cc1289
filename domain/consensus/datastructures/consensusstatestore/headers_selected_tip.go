package consensusstatestore

import (
	"github.com/calico-network/calicod/domain/consensus/database/binaryserialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

func (css *consensusStateStore) StageHeadersSelectedTip(stagingArea *model.StagingArea, selectedTip *externalapi.DomainHash) {
	css.stagingShard(stagingArea).headersSelectedTipStaging = selectedTip
}

func (css *consensusStateStore) HeadersSelectedTip(dbContext model.DBReader, stagingArea *model.StagingArea) (
	*externalapi.DomainHash, error) {

	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.headersSelectedTipStaging != nil {
		return stagingShard.headersSelectedTipStaging, nil
	}
	if css.headersSelectedTipCache != nil {
		return css.headersSelectedTipCache, nil
	}

	selectedTipBytes, err := dbContext.Get(css.headersSelectedTipKey)
	if err != nil {
		return nil, err
	}
	selectedTip, err := binaryserialization.DeserializeHash(selectedTipBytes)
	if err != nil {
		return nil, err
	}
	css.headersSelectedTipCache = selectedTip
	return selectedTip, nil
}

func (css *consensusStateStore) HasHeadersSelectedTip(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	if css.stagingShard(stagingArea).headersSelectedTipStaging != nil || css.headersSelectedTipCache != nil {
		return true, nil
	}
	return dbContext.Has(css.headersSelectedTipKey)
}

func (css *consensusStateStore) commitHeadersSelectedTip(dbTx model.DBTransaction, selectedTip *externalapi.DomainHash) error {
	err := dbTx.Put(css.headersSelectedTipKey, binaryserialization.SerializeHash(selectedTip))
	if err != nil {
		return err
	}
	css.headersSelectedTipCache = selectedTip
	return nil
}
