package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// SyncManager exposes functions to support sync between calicod nodes
type SyncManager interface {
	GetHashesBetween(stagingArea *StagingArea, lowHash, highHash *externalapi.DomainHash, maxBlocks uint64) (
		hashes []*externalapi.DomainHash, actualHighHash *externalapi.DomainHash, err error)
	GetMissingBlockBodyHashes(stagingArea *StagingArea, highHash *externalapi.DomainHash) ([]*externalapi.DomainHash, error)
	CreateBlockLocatorFromPruningPoint(stagingArea *StagingArea, highHash *externalapi.DomainHash, limit uint32) (externalapi.BlockLocator, error)
	CreateHeadersSelectedChainBlockLocator(stagingArea *StagingArea, lowHash, highHash *externalapi.DomainHash) (externalapi.BlockLocator, error)
}
