package headersselectedtipmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/logger"
)

var log = logger.RegisterSubSystem("BDAG")

type headerTipsManager struct {
	databaseContext model.DBReader

	dagTraversalManager       model.DAGTraversalManager
	ghostdagManager           model.GHOSTDAGManager
	consensusStateStore       model.ConsensusStateStore
	headersSelectedChainStore model.SelectedChainStore
}

// New instantiates a new HeadersSelectedTipManager
func New(databaseContext model.DBReader,
	dagTraversalManager model.DAGTraversalManager,
	ghostdagManager model.GHOSTDAGManager,
	consensusStateStore model.ConsensusStateStore,
	headersSelectedChainStore model.SelectedChainStore) model.HeadersSelectedTipManager {

	return &headerTipsManager{
		databaseContext:           databaseContext,
		dagTraversalManager:       dagTraversalManager,
		ghostdagManager:           ghostdagManager,
		consensusStateStore:       consensusStateStore,
		headersSelectedChainStore: headersSelectedChainStore,
	}
}

// AddHeaderTip makes hash the headers selected tip if it ranks above the current
// one, and moves the headers selected chain index accordingly
func (h *headerTipsManager) AddHeaderTip(stagingArea *model.StagingArea, hash *externalapi.DomainHash) error {
	hasSelectedTip, err := h.consensusStateStore.HasHeadersSelectedTip(h.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	if !hasSelectedTip {
		h.consensusStateStore.StageHeadersSelectedTip(stagingArea, hash)

		return h.headersSelectedChainStore.Stage(h.databaseContext, stagingArea, &externalapi.SelectedChainPath{
			Added:   []*externalapi.DomainHash{hash},
			Removed: nil,
		})
	}

	headersSelectedTip, err := h.consensusStateStore.HeadersSelectedTip(h.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	newHeadersSelectedTip, err := h.ghostdagManager.ChooseSelectedParent(stagingArea, headersSelectedTip, hash)
	if err != nil {
		return err
	}

	if newHeadersSelectedTip.Equal(headersSelectedTip) {
		return nil
	}

	log.Debugf("The headers selected tip moved from %s to %s", headersSelectedTip, newHeadersSelectedTip)
	h.consensusStateStore.StageHeadersSelectedTip(stagingArea, newHeadersSelectedTip)

	chainChanges, err := h.dagTraversalManager.CalculateChainPath(stagingArea, headersSelectedTip, newHeadersSelectedTip)
	if err != nil {
		return err
	}

	return h.headersSelectedChainStore.Stage(h.databaseContext, stagingArea, chainChanges)
}
