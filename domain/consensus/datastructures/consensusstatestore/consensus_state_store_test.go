package consensusstatestore

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
	"github.com/stretchr/testify/require"
)

var testScriptPublicKey = &externalapi.ScriptPublicKey{Script: []byte{0x51}, Version: 0}

func outpointFromByte(b byte) *externalapi.DomainOutpoint {
	transactionID := externalapi.NewDomainTransactionIDFromByteArray(&[externalapi.DomainHashSize]byte{b})
	return externalapi.NewDomainOutpoint(transactionID, 0)
}

func collectionOf(outpoints ...*externalapi.DomainOutpoint) externalapi.UTXOCollection {
	utxoMap := make(map[externalapi.DomainOutpoint]externalapi.UTXOEntry, len(outpoints))
	for i, outpoint := range outpoints {
		utxoMap[*outpoint] = utxo.NewUTXOEntry(uint64(i+1)*100, testScriptPublicKey, false, 1)
	}
	return utxo.NewUTXOCollection(utxoMap)
}

func prepareStore(t *testing.T) (database.Database, model.ConsensusStateStore, func()) {
	path, err := ioutil.TempDir("", "consensusstatestore")
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

func iteratedOutpoints(t *testing.T, iterator externalapi.ReadOnlyUTXOSetIterator) []externalapi.DomainOutpoint {
	defer func() { require.NoError(t, iterator.Close()) }()
	var outpoints []externalapi.DomainOutpoint
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, _, err := iterator.Get()
		require.NoError(t, err)
		outpoints = append(outpoints, *outpoint)
	}
	return outpoints
}

func TestVirtualUTXODiffIsVisibleBeforeCommit(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	a, b, c := outpointFromByte(1), outpointFromByte(2), outpointFromByte(3)

	stagingArea := model.NewStagingArea()
	store.StageVirtualUTXOSetOverride(stagingArea, collectionOf(a, b))
	commit(t, db, stagingArea)

	stagingArea = model.NewStagingArea()
	diff, err := utxo.NewUTXODiffFromCollections(collectionOf(c), collectionOf(a))
	require.NoError(t, err)
	store.StageVirtualUTXODiff(stagingArea, diff)

	has, err := store.HasUTXOByOutpoint(db, stagingArea, a)
	require.NoError(t, err)
	require.False(t, has)
	_, err = store.UTXOByOutpoint(db, stagingArea, a)
	require.True(t, database.IsNotFoundError(err))

	entry, err := store.UTXOByOutpoint(db, stagingArea, c)
	require.NoError(t, err)
	require.Equal(t, uint64(100), entry.Amount())

	iterator, err := store.VirtualUTXOSetIterator(db, stagingArea)
	require.NoError(t, err)
	require.Equal(t, []externalapi.DomainOutpoint{*b, *c}, iteratedOutpoints(t, iterator))

	// Nothing reaches the database until commit
	has, err = store.HasUTXOByOutpoint(db, model.NewStagingArea(), a)
	require.NoError(t, err)
	require.True(t, has)

	commit(t, db, stagingArea)

	iterator, err = store.VirtualUTXOSetIterator(db, model.NewStagingArea())
	require.NoError(t, err)
	require.Equal(t, []externalapi.DomainOutpoint{*b, *c}, iteratedOutpoints(t, iterator))
}

func TestVirtualUTXOsPagination(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	outpoints := []*externalapi.DomainOutpoint{
		outpointFromByte(1), outpointFromByte(2), outpointFromByte(3), outpointFromByte(4), outpointFromByte(5),
	}
	stagingArea := model.NewStagingArea()
	store.StageVirtualUTXOSetOverride(stagingArea, collectionOf(outpoints...))
	commit(t, db, stagingArea)

	firstPage, err := store.VirtualUTXOs(db, nil, 2)
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	require.Equal(t, *outpoints[0], *firstPage[0].Outpoint)
	require.Equal(t, *outpoints[1], *firstPage[1].Outpoint)

	secondPage, err := store.VirtualUTXOs(db, firstPage[1].Outpoint, 2)
	require.NoError(t, err)
	require.Len(t, secondPage, 2)
	require.Equal(t, *outpoints[2], *secondPage[0].Outpoint)

	lastPage, err := store.VirtualUTXOs(db, outpoints[4], 2)
	require.NoError(t, err)
	require.Empty(t, lastPage)
}

func TestVirtualUTXOSetOverrideReplacesEverything(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	a, b, c := outpointFromByte(1), outpointFromByte(2), outpointFromByte(3)

	stagingArea := model.NewStagingArea()
	store.StageVirtualUTXOSetOverride(stagingArea, collectionOf(a, b))
	commit(t, db, stagingArea)

	stagingArea = model.NewStagingArea()
	store.StageVirtualUTXOSetOverride(stagingArea, collectionOf(c))
	commit(t, db, stagingArea)

	iterator, err := store.VirtualUTXOSetIterator(db, model.NewStagingArea())
	require.NoError(t, err)
	require.Equal(t, []externalapi.DomainOutpoint{*c}, iteratedOutpoints(t, iterator))
}

func TestTipsAndHeadersSelectedTip(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	tip1 := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
	tip2 := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{2})

	stagingArea := model.NewStagingArea()
	has, err := store.HasHeadersSelectedTip(db, stagingArea)
	require.NoError(t, err)
	require.False(t, has)

	store.StageTips(stagingArea, []*externalapi.DomainHash{tip1, tip2})
	store.StageHeadersSelectedTip(stagingArea, tip2)
	require.True(t, store.IsStaged(stagingArea))
	commit(t, db, stagingArea)

	reopened := New(database.MakeBucket([]byte("test")), 10)
	stagingArea = model.NewStagingArea()
	tips, err := reopened.Tips(stagingArea, db)
	require.NoError(t, err)
	require.Len(t, tips, 2)
	require.True(t, tips[0].Equal(tip1))
	require.True(t, tips[1].Equal(tip2))

	selectedTip, err := reopened.HeadersSelectedTip(db, stagingArea)
	require.NoError(t, err)
	require.True(t, selectedTip.Equal(tip2))
}
