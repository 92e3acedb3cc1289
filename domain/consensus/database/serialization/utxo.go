package serialization

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
)

// DbOutpoint is the stored form of an outpoint
type DbOutpoint struct {
	TransactionID []byte `msgpack:"id"`
	Index         uint32 `msgpack:"i"`
}

// DbUTXOEntry is the stored form of a UTXO entry
type DbUTXOEntry struct {
	Amount          uint64             `msgpack:"a"`
	ScriptPublicKey *DbScriptPublicKey `msgpack:"spk"`
	BlockDAAScore   uint64             `msgpack:"daa"`
	IsCoinbase      bool               `msgpack:"cb"`
}

// DbOutpointAndUTXOEntryPair is the stored form of a single UTXO
type DbOutpointAndUTXOEntryPair struct {
	Outpoint  *DbOutpoint  `msgpack:"o"`
	UTXOEntry *DbUTXOEntry `msgpack:"e"`
}

// DbUTXODiff is the stored form of a UTXO diff
type DbUTXODiff struct {
	ToAdd    []*DbOutpointAndUTXOEntryPair `msgpack:"add"`
	ToRemove []*DbOutpointAndUTXOEntryPair `msgpack:"rem"`
}

// DomainOutpointToDbOutpoint converts DomainOutpoint to DbOutpoint
func DomainOutpointToDbOutpoint(domainOutpoint *externalapi.DomainOutpoint) *DbOutpoint {
	return &DbOutpoint{
		TransactionID: domainOutpoint.TransactionID.ByteSlice(),
		Index:         domainOutpoint.Index,
	}
}

// DbOutpointToDomainOutpoint converts DbOutpoint to DomainOutpoint
func DbOutpointToDomainOutpoint(dbOutpoint *DbOutpoint) (*externalapi.DomainOutpoint, error) {
	domainTransactionID, err := externalapi.NewDomainTransactionIDFromByteSlice(dbOutpoint.TransactionID)
	if err != nil {
		return nil, err
	}

	return &externalapi.DomainOutpoint{
		TransactionID: *domainTransactionID,
		Index:         dbOutpoint.Index,
	}, nil
}

// UTXOEntryToDBUTXOEntry converts UTXOEntry to DbUTXOEntry
func UTXOEntryToDBUTXOEntry(utxoEntry externalapi.UTXOEntry) *DbUTXOEntry {
	return &DbUTXOEntry{
		Amount:          utxoEntry.Amount(),
		ScriptPublicKey: ScriptPublicKeyToDbScriptPublicKey(utxoEntry.ScriptPublicKey()),
		BlockDAAScore:   utxoEntry.BlockDAAScore(),
		IsCoinbase:      utxoEntry.IsCoinbase(),
	}
}

// DBUTXOEntryToUTXOEntry convert DbUTXOEntry to UTXOEntry
func DBUTXOEntryToUTXOEntry(dbUtxoEntry *DbUTXOEntry) (externalapi.UTXOEntry, error) {
	scriptPublicKey, err := DbScriptPublicKeyToScriptPublicKey(dbUtxoEntry.ScriptPublicKey)
	if err != nil {
		return nil, err
	}
	return utxo.NewUTXOEntry(dbUtxoEntry.Amount, scriptPublicKey, dbUtxoEntry.IsCoinbase, dbUtxoEntry.BlockDAAScore), nil
}

// SerializeUTXOEntry encodes a UTXO entry for storage
func SerializeUTXOEntry(utxoEntry externalapi.UTXOEntry) ([]byte, error) {
	return Marshal(UTXOEntryToDBUTXOEntry(utxoEntry))
}

// DeserializeUTXOEntry decodes a stored UTXO entry
func DeserializeUTXOEntry(entryBytes []byte) (externalapi.UTXOEntry, error) {
	dbUTXOEntry := &DbUTXOEntry{}
	err := Unmarshal(entryBytes, dbUTXOEntry)
	if err != nil {
		return nil, err
	}
	return DBUTXOEntryToUTXOEntry(dbUTXOEntry)
}

// UTXOCollectionToDbPairs converts a UTXO collection to its stored pairs, in
// iteration order
func UTXOCollectionToDbPairs(utxoCollection externalapi.UTXOCollection) ([]*DbOutpointAndUTXOEntryPair, error) {
	dbPairs := make([]*DbOutpointAndUTXOEntryPair, 0, utxoCollection.Len())
	iterator := utxoCollection.Iterator()
	defer iterator.Close()
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return nil, err
		}
		dbPairs = append(dbPairs, &DbOutpointAndUTXOEntryPair{
			Outpoint:  DomainOutpointToDbOutpoint(outpoint),
			UTXOEntry: UTXOEntryToDBUTXOEntry(entry),
		})
	}
	return dbPairs, nil
}

// DbPairsToUTXOCollection converts stored pairs back to a UTXO collection
func DbPairsToUTXOCollection(dbPairs []*DbOutpointAndUTXOEntryPair) (externalapi.UTXOCollection, error) {
	utxoMap := make(map[externalapi.DomainOutpoint]externalapi.UTXOEntry, len(dbPairs))
	for _, dbPair := range dbPairs {
		outpoint, err := DbOutpointToDomainOutpoint(dbPair.Outpoint)
		if err != nil {
			return nil, err
		}
		entry, err := DBUTXOEntryToUTXOEntry(dbPair.UTXOEntry)
		if err != nil {
			return nil, err
		}
		utxoMap[*outpoint] = entry
	}
	return utxo.NewUTXOCollection(utxoMap), nil
}

// UTXODiffToDBUTXODiff converts UTXODiff to DbUTXODiff
func UTXODiffToDBUTXODiff(diff externalapi.UTXODiff) (*DbUTXODiff, error) {
	toAdd, err := UTXOCollectionToDbPairs(diff.ToAdd())
	if err != nil {
		return nil, err
	}
	toRemove, err := UTXOCollectionToDbPairs(diff.ToRemove())
	if err != nil {
		return nil, err
	}
	return &DbUTXODiff{ToAdd: toAdd, ToRemove: toRemove}, nil
}

// DBUTXODiffToUTXODiff converts DbUTXODiff to UTXODiff
func DBUTXODiffToUTXODiff(diff *DbUTXODiff) (externalapi.UTXODiff, error) {
	toAdd, err := DbPairsToUTXOCollection(diff.ToAdd)
	if err != nil {
		return nil, err
	}
	toRemove, err := DbPairsToUTXOCollection(diff.ToRemove)
	if err != nil {
		return nil, err
	}
	return utxo.NewUTXODiffFromCollections(toAdd, toRemove)
}
