package consensushashing

import (
	"io"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/hashes"
	"github.com/calico-network/calicod/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// txEncoding is a bitmask defining which transaction fields we
// want to encode and which to ignore.
type txEncoding uint8

const (
	txEncodingFull txEncoding = 0

	txEncodingExcludeSignatureScript txEncoding = 1 << iota
)

// TransactionHash returns the transaction hash.
func TransactionHash(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	writer := hashes.NewTransactionHashWriter()
	err := serializeTransaction(writer, tx, txEncodingFull)
	if err != nil {
		// this writer never returns errors (no allocations or possible failures) so errors can only come from validity checks,
		// and we assume we never construct malformed transactions.
		panic(errors.Wrap(err, "TransactionHash() failed. this should never fail for structurally-valid transactions"))
	}

	return writer.Finalize()
}

// TransactionID generates the Hash for the transaction without the signature script.
func TransactionID(tx *externalapi.DomainTransaction) *externalapi.DomainTransactionID {
	if tx.ID != nil {
		return tx.ID
	}

	writer := hashes.NewTransactionIDWriter()
	err := serializeTransaction(writer, tx, txEncodingExcludeSignatureScript)
	if err != nil {
		panic(errors.Wrap(err, "TransactionID() failed. this should never fail for structurally-valid transactions"))
	}
	transactionID := externalapi.DomainTransactionID(*writer.Finalize())

	tx.ID = &transactionID

	return tx.ID
}

// TransactionIDs converts the provided slice of DomainTransactions
// to a corresponding slice of TransactionIDs
func TransactionIDs(txs []*externalapi.DomainTransaction) []*externalapi.DomainTransactionID {
	txIDs := make([]*externalapi.DomainTransactionID, len(txs))
	for i, tx := range txs {
		txIDs[i] = TransactionID(tx)
	}
	return txIDs
}

func serializeTransaction(w io.Writer, tx *externalapi.DomainTransaction, encodingFlags txEncoding) error {
	err := serialization.WriteElements(w, tx.Version, uint64(len(tx.Inputs)))
	if err != nil {
		return err
	}
	for _, input := range tx.Inputs {
		err = writeTransactionInput(w, input, encodingFlags)
		if err != nil {
			return err
		}
	}

	err = serialization.WriteElement(w, uint64(len(tx.Outputs)))
	if err != nil {
		return err
	}
	for _, output := range tx.Outputs {
		err = serialization.WriteElements(w, output.Value, output.ScriptPublicKey.Version, output.ScriptPublicKey.Script)
		if err != nil {
			return err
		}
	}

	return serialization.WriteElements(w, tx.LockTime, tx.SubnetworkID, tx.Gas, tx.Payload)
}

func writeTransactionInput(w io.Writer, input *externalapi.DomainTransactionInput, encodingFlags txEncoding) error {
	err := serialization.WriteElements(w, input.PreviousOutpoint.TransactionID, input.PreviousOutpoint.Index)
	if err != nil {
		return err
	}

	signatureScript := input.SignatureScript
	if encodingFlags&txEncodingExcludeSignatureScript == txEncodingExcludeSignatureScript {
		signatureScript = []byte{}
	}
	return serialization.WriteElements(w, signatureScript, input.Sequence, input.SigOpCount)
}
