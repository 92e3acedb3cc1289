package model

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

// BlockProcessor is responsible for processing incoming blocks
type BlockProcessor interface {
	ValidateAndInsertBlock(block *externalapi.DomainBlock, updateVirtual bool) (*externalapi.VirtualChangeSet, error)
	ValidateAndInsertImportedPruningPoint(newPruningPoint *externalapi.DomainBlock) error
	ValidateAndInsertBlockWithTrustedData(block *externalapi.BlockWithTrustedData) (*externalapi.VirtualChangeSet, error)
	ResolveVirtual() (*externalapi.VirtualChangeSet, error)
}
