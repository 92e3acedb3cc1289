package consensusstatemanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// GetVirtualSelectedParentChainFromBlock returns the selected chain changes
// leading from blockHash to the current virtual selected parent
func (csm *consensusStateManager) GetVirtualSelectedParentChainFromBlock(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.SelectedChainPath, error) {

	virtualSelectedParent, err := csm.virtualSelectedParent(stagingArea)
	if err != nil {
		return nil, err
	}
	if virtualSelectedParent == nil {
		return nil, model.NewInvariantViolationError(model.VirtualBlockHash, "the virtual was never resolved")
	}

	return csm.dagTraversalManager.CalculateChainPath(stagingArea, blockHash, virtualSelectedParent)
}
