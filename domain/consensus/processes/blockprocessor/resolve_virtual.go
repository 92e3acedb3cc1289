package blockprocessor

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/util/staging"
)

func (bp *blockProcessor) resolveVirtual(stagingArea *model.StagingArea) (*externalapi.VirtualChangeSet, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "resolveVirtual")
	defer onEnd()

	selectedParentChainChanges, err := bp.consensusStateManager.ResolveVirtual(stagingArea)
	if err != nil {
		return nil, err
	}
	virtualChangeSet, err := bp.updateVirtualState(stagingArea, selectedParentChainChanges, nil)
	if err != nil {
		return nil, err
	}

	err = staging.CommitAllChanges(bp.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	return virtualChangeSet, nil
}
