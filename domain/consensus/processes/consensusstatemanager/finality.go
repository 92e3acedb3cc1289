package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// ResolveFinalityConflict keeps the current finality point by disqualifying
// blockHash from ever joining the selected chain
func (csm *consensusStateManager) ResolveFinalityConflict(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) error {

	isViolatingFinality, err := csm.finalityManager.IsViolatingFinality(stagingArea, blockHash)
	if err != nil {
		return err
	}
	if !isViolatingFinality {
		return errors.Wrapf(ruleerrors.ErrNotInFinalityConflict, "block %s does not violate finality", blockHash)
	}

	log.Infof("Resolving the finality conflict of block %s in favor of the current finality point", blockHash)
	csm.blockStatusStore.Stage(stagingArea, blockHash, externalapi.StatusDisqualifiedFromChain)
	return nil
}
