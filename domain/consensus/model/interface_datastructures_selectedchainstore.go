package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// SelectedChainStore represents a store that indexes a selected parent chain
// by position, lowest block first
type SelectedChainStore interface {
	Store
	Stage(dbContext DBReader, stagingArea *StagingArea, chainChanges *externalapi.SelectedChainPath) error
	IsStaged(stagingArea *StagingArea) bool
	GetIndexByHash(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (uint64, error)
	GetHashByIndex(dbContext DBReader, stagingArea *StagingArea, index uint64) (*externalapi.DomainHash, error)
	HighestChainBlockIndex(dbContext DBReader, stagingArea *StagingArea) (uint64, bool, error)
}
