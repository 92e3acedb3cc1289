package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// FinalityManager provides method to validate that a block does not violate finality
type FinalityManager interface {
	IsViolatingFinality(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	VirtualFinalityPoint(stagingArea *StagingArea) (*externalapi.DomainHash, error)
	UpdateFinalityPoint(stagingArea *StagingArea) error
}
