package dagtraversalmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

type selectedParentIterator struct {
	databaseContext   model.DBReader
	ghostdagDataStore model.GHOSTDAGDataStore
	stagingArea       *model.StagingArea
	highHash          *externalapi.DomainHash
	current           *externalapi.DomainHash
	err               error
	isClosed          bool
}

func (spi *selectedParentIterator) First() bool {
	if spi.isClosed {
		panic("Tried using a closed selectedParentIterator")
	}
	spi.current = spi.highHash
	spi.err = nil
	return true
}

func (spi *selectedParentIterator) Next() bool {
	if spi.isClosed {
		panic("Tried using a closed selectedParentIterator")
	}
	if spi.err != nil || spi.current == nil {
		return false
	}
	ghostdagData, err := spi.ghostdagDataStore.Get(spi.databaseContext, spi.stagingArea, spi.current)
	if err != nil {
		spi.err = err
		return true
	}
	selectedParent := ghostdagData.SelectedParent()
	if selectedParent == nil || selectedParent.Equal(model.VirtualGenesisBlockHash) {
		spi.current = nil
		return false
	}
	spi.current = selectedParent
	return true
}

func (spi *selectedParentIterator) Get() (*externalapi.DomainHash, error) {
	if spi.isClosed {
		return nil, errors.New("Tried using a closed selectedParentIterator")
	}
	return spi.current, spi.err
}

func (spi *selectedParentIterator) Close() error {
	if spi.isClosed {
		return errors.New("Tried using a closed selectedParentIterator")
	}
	spi.isClosed = true
	spi.databaseContext = nil
	spi.ghostdagDataStore = nil
	spi.stagingArea = nil
	spi.highHash = nil
	spi.current = nil
	spi.err = nil
	return nil
}

// SelectedParentIterator returns a BlockIterator that iterates from highHash (inclusive)
// down its selected parent chain, until genesis or the first block imported with trusted data
func (dtm *dagTraversalManager) SelectedParentIterator(stagingArea *model.StagingArea,
	highHash *externalapi.DomainHash) model.BlockIterator {

	return &selectedParentIterator{
		databaseContext:   dtm.databaseContext,
		ghostdagDataStore: dtm.ghostdagDataStore,
		stagingArea:       stagingArea,
		highHash:          highHash,
	}
}
