package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// FinalityStore represents a store for the virtual finality point
type FinalityStore interface {
	Store
	IsStaged(stagingArea *StagingArea) bool
	StageFinalityPoint(stagingArea *StagingArea, finalityPointHash *externalapi.DomainHash)
	FinalityPoint(dbContext DBReader, stagingArea *StagingArea) (*externalapi.DomainHash, error)
	HasFinalityPoint(dbContext DBReader, stagingArea *StagingArea) (bool, error)
}
