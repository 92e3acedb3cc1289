package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// PruningManager resolves and manages the current pruning point
type PruningManager interface {
	StagePruningSample(stagingArea *StagingArea, blockHash *externalapi.DomainHash) error
	ExpectedHeaderPruningPoint(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (
		expected *externalapi.DomainHash, isTrusted bool, err error)
	UpdatePruningPointByVirtual(stagingArea *StagingArea) (moved bool, previous *externalapi.DomainHash, err error)
	IsValidPruningPoint(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	PruningPointAndItsAnticone() ([]*externalapi.DomainHash, error)
	BlockWithTrustedData(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.BlockWithTrustedData, error)
	ClearImportedPruningPointData() error
	AppendImportedPruningPointUTXOs(outpointAndUTXOEntryPairs []*externalapi.OutpointAndUTXOEntryPair) error
	GetPruningPointUTXOs(expectedPruningPointHash *externalapi.DomainHash, fromOutpoint *externalapi.DomainOutpoint,
		limit int) ([]*externalapi.OutpointAndUTXOEntryPair, error)
	PruningPointHeaders() ([]externalapi.BlockHeader, error)
}
