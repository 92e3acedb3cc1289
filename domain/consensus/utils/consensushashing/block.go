package consensushashing

import (
	"io"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashes"
	"github.com/calico-network/calicod/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// BlockHash returns the given block's hash
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	return HeaderHash(block.Header)
}

// HeaderHash returns the given header's hash
func HeaderHash(header externalapi.BaseBlockHeader) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	err := serializeHeader(writer, header)
	if err != nil {
		// It seems like this could only happen if the writer returned an error.
		// and this writer should never return an error (no allocations or possible failures)
		// the only non-writer error path here is unknown types in `WriteElement`
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}

func serializeHeader(w io.Writer, header externalapi.BaseBlockHeader) error {
	parents := header.Parents()
	err := serialization.WriteElements(w, header.Version(), uint64(len(parents)))
	if err != nil {
		return err
	}
	for _, blockLevelParents := range parents {
		err = serialization.WriteElement(w, uint64(len(blockLevelParents)))
		if err != nil {
			return err
		}
		for _, hash := range blockLevelParents {
			err = serialization.WriteElement(w, hash)
			if err != nil {
				return err
			}
		}
	}
	return serialization.WriteElements(w, header.HashMerkleRoot(), header.AcceptedIDMerkleRoot(),
		header.UTXOCommitment(), header.TimeInMilliseconds(), header.Bits(), header.Nonce(),
		header.DAAScore(), header.BlueScore(), header.BlueWork().Bytes(), header.PruningPoint())
}
