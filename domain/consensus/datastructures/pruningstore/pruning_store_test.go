package pruningstore

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/multiset"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
	"github.com/stretchr/testify/require"
)

func hashFromByte(b byte) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{b})
}

func outpointFromByte(b byte) *externalapi.DomainOutpoint {
	return externalapi.NewDomainOutpoint(externalapi.NewDomainTransactionIDFromByteArray(&[externalapi.DomainHashSize]byte{b}), 0)
}

func prepareStore(t *testing.T) (database.Database, model.PruningStore, func()) {
	path, err := ioutil.TempDir("", "pruningstore")
	require.NoError(t, err)
	db, err := ldb.NewLevelDB(path, 8)
	require.NoError(t, err)
	store := New(database.MakeBucket([]byte("test")), 10)
	return db, store, func() {
		require.NoError(t, db.Close())
		require.NoError(t, os.RemoveAll(path))
	}
}

func commit(t *testing.T, db database.Database, stagingArea *model.StagingArea) {
	dbTx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, stagingArea.Commit(dbTx))
	require.NoError(t, dbTx.Commit())
}

func TestPruningPointHistory(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	stagingArea := model.NewStagingArea()
	has, err := store.HasPruningPoint(db, stagingArea)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, store.StagePruningPoint(db, stagingArea, hashFromByte(1)))
	commit(t, db, stagingArea)

	stagingArea = model.NewStagingArea()
	require.NoError(t, store.StagePruningPoint(db, stagingArea, hashFromByte(2)))
	require.NoError(t, store.StagePruningPoint(db, stagingArea, hashFromByte(3)))
	commit(t, db, stagingArea)

	reopened := New(database.MakeBucket([]byte("test")), 10)
	stagingArea = model.NewStagingArea()
	index, err := reopened.CurrentPruningPointIndex(db, stagingArea)
	require.NoError(t, err)
	require.Equal(t, uint64(2), index)

	pruningPoint, err := reopened.PruningPoint(db, stagingArea)
	require.NoError(t, err)
	require.True(t, pruningPoint.Equal(hashFromByte(3)))

	for i := uint64(0); i <= 2; i++ {
		hash, err := reopened.PruningPointByIndex(db, stagingArea, i)
		require.NoError(t, err)
		require.True(t, hash.Equal(hashFromByte(byte(i+1))))
	}
}

func TestPruningPointUTXOSetAndProof(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	spk := &externalapi.ScriptPublicKey{Script: []byte{0x51}}
	a, b, c := outpointFromByte(1), outpointFromByte(2), outpointFromByte(3)
	utxoSet := utxo.NewUTXOCollection(map[externalapi.DomainOutpoint]externalapi.UTXOEntry{
		*a: utxo.NewUTXOEntry(1, spk, false, 0),
		*b: utxo.NewUTXOEntry(2, spk, false, 0),
		*c: utxo.NewUTXOEntry(3, spk, true, 0),
	})

	stagingArea := model.NewStagingArea()
	_, found, err := store.PruningPointProof(db, stagingArea)
	require.NoError(t, err)
	require.False(t, found)

	store.StagePruningPointUTXOSet(stagingArea, utxoSet)
	store.StagePruningPointProof(stagingArea, &externalapi.PruningPointProof{})
	commit(t, db, stagingArea)

	page, err := store.PruningPointUTXOs(db, a, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, *b, *page[0].Outpoint)
	require.Equal(t, uint64(3), page[1].UTXOEntry.Amount())

	reopened := New(database.MakeBucket([]byte("test")), 10)
	_, found, err = reopened.PruningPointProof(db, model.NewStagingArea())
	require.NoError(t, err)
	require.True(t, found)
}

func TestImportedPruningPointData(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	spk := &externalapi.ScriptPublicKey{Script: []byte{0x51}}
	pairs := []*externalapi.OutpointAndUTXOEntryPair{
		{Outpoint: outpointFromByte(1), UTXOEntry: utxo.NewUTXOEntry(5, spk, false, 0)},
		{Outpoint: outpointFromByte(2), UTXOEntry: utxo.NewUTXOEntry(6, spk, false, 0)},
	}

	dbTx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, store.AppendImportedPruningPointUTXOs(dbTx, pairs))
	ms := multiset.New()
	ms.Add([]byte{1})
	require.NoError(t, store.UpdateImportedPruningPointMultiset(dbTx, ms))
	require.NoError(t, dbTx.Commit())

	iterator, err := store.ImportedPruningPointUTXOIterator(db)
	require.NoError(t, err)
	count := 0
	for ok := iterator.First(); ok; ok = iterator.Next() {
		_, _, err := iterator.Get()
		require.NoError(t, err)
		count++
	}
	require.NoError(t, iterator.Close())
	require.Equal(t, 2, count)

	storedMultiset, err := store.ImportedPruningPointMultiset(db)
	require.NoError(t, err)
	require.True(t, storedMultiset.Hash().Equal(ms.Hash()))

	require.NoError(t, store.ClearImportedPruningPointUTXOs(db))
	require.NoError(t, store.ClearImportedPruningPointMultiset(db))

	iterator, err = store.ImportedPruningPointUTXOIterator(db)
	require.NoError(t, err)
	require.False(t, iterator.First())
	require.NoError(t, iterator.Close())

	storedMultiset, err = store.ImportedPruningPointMultiset(db)
	require.NoError(t, err)
	require.True(t, storedMultiset.Hash().Equal(multiset.New().Hash()))
}
