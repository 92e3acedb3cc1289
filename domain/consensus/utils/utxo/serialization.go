package utxo

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

const outpointSize = externalapi.DomainHashSize + 4

// SerializeUTXO returns the byte-slice representation for given UTXOEntry-outpoint pair.
// This is the element that is added to and removed from UTXO multisets.
func SerializeUTXO(entry externalapi.UTXOEntry, outpoint *externalapi.DomainOutpoint) ([]byte, error) {
	w := &bytes.Buffer{}

	err := serializeOutpoint(w, outpoint)
	if err != nil {
		return nil, err
	}

	err = serializeUTXOEntry(w, entry)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// SerializeOutpoint returns the fixed-size byte representation of an outpoint,
// used as a database key suffix for UTXO sets
func SerializeOutpoint(outpoint *externalapi.DomainOutpoint) []byte {
	w := bytes.NewBuffer(make([]byte, 0, outpointSize))
	err := serializeOutpoint(w, outpoint)
	if err != nil {
		panic(errors.Wrap(err, "writing to a bytes.Buffer should never fail"))
	}
	return w.Bytes()
}

// DeserializeOutpoint is the inverse of SerializeOutpoint
func DeserializeOutpoint(outpointBytes []byte) (*externalapi.DomainOutpoint, error) {
	if len(outpointBytes) != outpointSize {
		return nil, errors.Errorf("outpoint bytes expected to be of length %d but got %d",
			outpointSize, len(outpointBytes))
	}
	transactionID, err := externalapi.NewDomainTransactionIDFromByteSlice(outpointBytes[:externalapi.DomainHashSize])
	if err != nil {
		return nil, err
	}
	index := binary.LittleEndian.Uint32(outpointBytes[externalapi.DomainHashSize:])
	return externalapi.NewDomainOutpoint(transactionID, index), nil
}

func serializeOutpoint(w io.Writer, outpoint *externalapi.DomainOutpoint) error {
	return serialization.WriteElements(w, outpoint.TransactionID, outpoint.Index)
}

func serializeUTXOEntry(w io.Writer, entry externalapi.UTXOEntry) error {
	scriptPublicKey := entry.ScriptPublicKey()
	return serialization.WriteElements(w, entry.BlockDAAScore(), entry.Amount(), entry.IsCoinbase(),
		scriptPublicKey.Version, scriptPublicKey.Script)
}
