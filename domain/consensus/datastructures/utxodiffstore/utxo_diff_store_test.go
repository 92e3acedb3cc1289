package utxodiffstore

import (
	"math/rand"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

func TestUTXODiffSerializationAndDeserialization(t *testing.T) {
	utxoDiffStore := New(database.MakeBucket(nil), 10).(*utxoDiffStore)

	testUTXODiff, err := buildTestUTXODiff()
	if err != nil {
		t.Fatalf("Could not create UTXODiff from toAdd and toRemove collections: %s", err)
	}

	serializedUTXODiff, err := utxoDiffStore.serializeUTXODiff(testUTXODiff)
	if err != nil {
		t.Fatalf("Could not serialize UTXO diff: %s", err)
	}
	deserializedUTXODiff, err := utxoDiffStore.deserializeUTXODiff(serializedUTXODiff)
	if err != nil {
		t.Fatalf("Could not deserialize UTXO diff: %s", err)
	}

	compareCollections(t, "toAdd", testUTXODiff.ToAdd(), deserializedUTXODiff.ToAdd())
	compareCollections(t, "toRemove", testUTXODiff.ToRemove(), deserializedUTXODiff.ToRemove())
}

func TestStagedDeleteHidesDiff(t *testing.T) {
	utxoDiffStore := New(database.MakeBucket(nil), 10)
	stagingArea := model.NewStagingArea()
	blockHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})

	testUTXODiff, err := buildTestUTXODiff()
	if err != nil {
		t.Fatalf("buildTestUTXODiff: %s", err)
	}
	utxoDiffStore.Stage(stagingArea, blockHash, testUTXODiff)

	has, err := utxoDiffStore.Has(nil, stagingArea, blockHash)
	if err != nil {
		t.Fatalf("Has: %s", err)
	}
	if !has {
		t.Fatalf("expected the staged diff to exist")
	}

	utxoDiffStore.Delete(stagingArea, blockHash)
	if utxoDiffStore.IsStaged(stagingArea) {
		t.Fatalf("deleting a staged-only diff should leave nothing staged")
	}
}

func compareCollections(t *testing.T, name string, expected, actual externalapi.UTXOCollection) {
	if expected.Len() != actual.Len() {
		t.Fatalf("Unexpected %s length in deserialized utxoDiff. Want: %d, got: %d", name, expected.Len(), actual.Len())
	}
	iterator := expected.Iterator()
	defer iterator.Close()
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			t.Fatalf("Could not get an outpoint-utxoEntry pair out of the %s iterator: %s", name, err)
		}
		deserializedEntry, ok := actual.Get(outpoint)
		if !ok {
			t.Fatalf("Outpoint %s not found in the deserialized %s collection", outpoint, name)
		}
		if !entry.Equal(deserializedEntry) {
			t.Fatalf("Deserialized UTXO entry is not equal to the original for outpoint %s in %s", outpoint, name)
		}
	}
}

func buildTestUTXODiff() (externalapi.UTXODiff, error) {
	toAdd, err := buildTestUTXOCollection()
	if err != nil {
		return nil, err
	}
	toRemove, err := buildTestUTXOCollection()
	if err != nil {
		return nil, err
	}
	return utxo.NewUTXODiffFromCollections(toAdd, toRemove)
}

func buildTestUTXOCollection() (externalapi.UTXOCollection, error) {
	utxoMap := make(map[externalapi.DomainOutpoint]externalapi.UTXOEntry)

	for i := 0; i < 5; i++ {
		var outpointTransactionIDBytes [32]byte
		rand.Read(outpointTransactionIDBytes[:])
		outpointTransactionID := externalapi.NewDomainTransactionIDFromByteArray(&outpointTransactionIDBytes)
		outpointIndex := rand.Uint32()
		outpoint := externalapi.NewDomainOutpoint(outpointTransactionID, outpointIndex)

		utxoEntryAmount := rand.Uint64()
		var utxoEntryScriptPublicKeyScript [256]byte
		rand.Read(utxoEntryScriptPublicKeyScript[:])
		utxoEntryScriptPublicKeyVersion := uint16(rand.Uint32())
		utxoEntryScriptPublicKey := &externalapi.ScriptPublicKey{
			Script:  utxoEntryScriptPublicKeyScript[:],
			Version: utxoEntryScriptPublicKeyVersion,
		}
		utxoEntryIsCoinbase := rand.Float32() > 0.5
		utxoEntryBlockDAAScore := rand.Uint64()
		utxoEntry := utxo.NewUTXOEntry(utxoEntryAmount, utxoEntryScriptPublicKey, utxoEntryIsCoinbase, utxoEntryBlockDAAScore)

		utxoMap[*outpoint] = utxoEntry
	}

	return utxo.NewUTXOCollection(utxoMap), nil
}
