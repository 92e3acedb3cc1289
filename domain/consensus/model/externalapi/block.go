package externalapi

// DomainBlock represents a calico block
type DomainBlock struct {
	Header       BlockHeader
	Transactions []*DomainTransaction
}

// Clone returns a clone of DomainBlock
func (block *DomainBlock) Clone() *DomainBlock {
	transactionClone := make([]*DomainTransaction, len(block.Transactions))
	for i, tx := range block.Transactions {
		transactionClone[i] = tx.Clone()
	}

	return &DomainBlock{
		Header:       block.Header,
		Transactions: transactionClone,
	}
}

// BlockWithTrustedData is a block together with the GHOSTDAG data its
// sender computed for it, so that it can be inserted without its past.
type BlockWithTrustedData struct {
	Block        *DomainBlock
	GHOSTDAGData *BlockGHOSTDAGData
}
