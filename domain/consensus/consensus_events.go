package consensus

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// sendEvents pushes the events implied by an insertion or a virtual resolution.
// block is nil when the change was not caused by a new block.
func (s *consensus) sendEvents(block *externalapi.DomainBlock, virtualChangeSet *externalapi.VirtualChangeSet) error {
	if block != nil && len(block.Transactions) > 0 {
		err := s.sendEvent(&externalapi.BlockAdded{Block: block})
		if err != nil {
			return err
		}
	}
	if virtualChangeSet == nil {
		return nil
	}

	if !virtualChangeSet.VirtualSelectedParentChainChanges.IsEmpty() {
		err := s.sendEvent(&externalapi.VirtualChainChanged{
			Added:   virtualChangeSet.VirtualSelectedParentChainChanges.Added,
			Removed: virtualChangeSet.VirtualSelectedParentChainChanges.Removed,
		})
		if err != nil {
			return err
		}
	}
	if virtualChangeSet.PruningPointMoved != nil {
		err := s.sendEvent(virtualChangeSet.PruningPointMoved)
		if err != nil {
			return err
		}
	}
	if virtualChangeSet.FinalityConflict != nil {
		err := s.sendEvent(virtualChangeSet.FinalityConflict)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *consensus) sendEvent(event externalapi.ConsensusEvent) error {
	if s.consensusEventsChan == nil {
		return nil
	}
	if len(s.consensusEventsChan) == cap(s.consensusEventsChan) {
		return errors.Errorf("consensusEventsChan is full")
	}
	s.consensusEventsChan <- event
	return nil
}
