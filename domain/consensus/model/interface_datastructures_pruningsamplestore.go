package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// PruningSampleStore maps every block to the latest pruning sample on its selected chain
type PruningSampleStore interface {
	Store
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, pruningSample *externalapi.DomainHash)
	IsStaged(stagingArea *StagingArea) bool
	PruningSample(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.DomainHash, error)
}
