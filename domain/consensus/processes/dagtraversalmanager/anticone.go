package dagtraversalmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashset"
	"github.com/pkg/errors"
)

// ErrAnticoneTooBig is returned from Anticone when the anticone exceeds maxBlocks
var ErrAnticoneTooBig = errors.New("anticone is bigger than the requested maximum")

// AnticoneFromVirtualPOV returns the anticone of blockHash among all blocks known to the virtual
func (dtm *dagTraversalManager) AnticoneFromVirtualPOV(stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error) {

	return dtm.Anticone(stagingArea, blockHash, model.VirtualBlockHash, 0)
}

// Anticone returns the blocks of past(contextHash), and contextHash itself unless it is the
// virtual, that are neither ancestors nor descendants of blockHash. A maxBlocks of 0 means no limit.
func (dtm *dagTraversalManager) Anticone(stagingArea *model.StagingArea, blockHash, contextHash *externalapi.DomainHash,
	maxBlocks uint64) ([]*externalapi.DomainHash, error) {

	anticone := []*externalapi.DomainHash{}
	visited := hashset.New()

	var queue []*externalapi.DomainHash
	if contextHash.Equal(model.VirtualBlockHash) {
		parents, err := dtm.dagTopologyManager.Parents(stagingArea, contextHash)
		if err != nil {
			return nil, err
		}
		queue = append(queue, parents...)
	} else {
		queue = append(queue, contextHash)
	}
	for _, hash := range queue {
		visited.Add(hash)
	}

	for len(queue) > 0 {
		var current *externalapi.DomainHash
		current, queue = queue[0], queue[1:]

		if current.Equal(blockHash) || current.Equal(model.VirtualGenesisBlockHash) {
			continue
		}
		isAncestorOfBlock, err := dtm.dagTopologyManager.IsAncestorOf(stagingArea, current, blockHash)
		if err != nil {
			return nil, err
		}
		if isAncestorOfBlock {
			continue
		}
		isDescendantOfBlock, err := dtm.dagTopologyManager.IsAncestorOf(stagingArea, blockHash, current)
		if err != nil {
			return nil, err
		}
		if !isDescendantOfBlock {
			anticone = append(anticone, current)
			if maxBlocks > 0 && uint64(len(anticone)) > maxBlocks {
				return nil, errors.Wrapf(ErrAnticoneTooBig, "anticone of %s exceeds %d blocks", blockHash, maxBlocks)
			}
		}

		parents, err := dtm.dagTopologyManager.Parents(stagingArea, current)
		if err != nil {
			return nil, err
		}
		for _, parent := range parents {
			if visited.Contains(parent) {
				continue
			}
			visited.Add(parent)
			queue = append(queue, parent)
		}
	}
	return anticone, nil
}
