package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/logger"
)

// AddBlock makes blockHash a tip, replacing its parents, and resolves the virtual
// unless updateVirtual is false
func (csm *consensusStateManager) AddBlock(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash,
	updateVirtual bool) (*externalapi.SelectedChainPath, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "csm.AddBlock")
	defer onEnd()

	log.Debugf("Adding block %s to the DAG tips", blockHash)
	newTips, err := csm.addTip(stagingArea, blockHash)
	if err != nil {
		return nil, err
	}
	log.Debugf("After adding %s, the amount of new tips are %d", blockHash, len(newTips))

	if !updateVirtual {
		return &externalapi.SelectedChainPath{}, nil
	}

	return csm.resolveVirtual(stagingArea, newTips)
}

// ResolveVirtual re-picks the virtual parents from the current tips
func (csm *consensusStateManager) ResolveVirtual(stagingArea *model.StagingArea) (*externalapi.SelectedChainPath, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "csm.ResolveVirtual")
	defer onEnd()

	tips, err := csm.consensusStateStore.Tips(stagingArea, csm.databaseContext)
	if err != nil {
		return nil, err
	}
	return csm.resolveVirtual(stagingArea, tips)
}

func (csm *consensusStateManager) addTip(stagingArea *model.StagingArea, newTipHash *externalapi.DomainHash) (
	newTips []*externalapi.DomainHash, err error) {

	currentTips, err := csm.consensusStateStore.Tips(stagingArea, csm.databaseContext)
	if err != nil {
		if !database.IsNotFoundError(err) {
			return nil, err
		}
		currentTips = nil
	}

	newTipParents, err := csm.dagTopologyManager.Parents(stagingArea, newTipHash)
	if err != nil {
		return nil, err
	}

	newTips = []*externalapi.DomainHash{newTipHash}
	for _, currentTip := range currentTips {
		if currentTip.Equal(newTipHash) {
			continue
		}
		isParent := false
		for _, parent := range newTipParents {
			if parent.Equal(currentTip) {
				isParent = true
				break
			}
		}
		if !isParent {
			newTips = append(newTips, currentTip)
		}
	}

	csm.consensusStateStore.StageTips(stagingArea, newTips)
	return newTips, nil
}
