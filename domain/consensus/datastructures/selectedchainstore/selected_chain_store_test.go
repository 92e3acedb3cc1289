package selectedchainstore

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
	"github.com/stretchr/testify/require"
)

func hashFromByte(b byte) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{b})
}

func prepareStore(t *testing.T) (database.Database, model.SelectedChainStore, func()) {
	path, err := ioutil.TempDir("", "selectedchainstore")
	require.NoError(t, err)
	db, err := ldb.NewLevelDB(path, 8)
	require.NoError(t, err)
	store := New(database.MakeBucket([]byte("test")), "virtual", model.StagingShardIDVirtualSelectedChain, 10)
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

func TestSelectedChainStoreReorg(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	a, b, c, d, e := hashFromByte(1), hashFromByte(2), hashFromByte(3), hashFromByte(4), hashFromByte(5)

	stagingArea := model.NewStagingArea()
	_, exists, err := store.HighestChainBlockIndex(db, stagingArea)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Stage(db, stagingArea, &externalapi.SelectedChainPath{Added: []*externalapi.DomainHash{a, b, c}}))
	commit(t, db, stagingArea)

	stagingArea = model.NewStagingArea()
	highest, exists, err := store.HighestChainBlockIndex(db, stagingArea)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, uint64(2), highest)

	require.NoError(t, store.Stage(db, stagingArea, &externalapi.SelectedChainPath{
		Removed: []*externalapi.DomainHash{c},
		Added:   []*externalapi.DomainHash{d, e},
	}))
	commit(t, db, stagingArea)

	stagingArea = model.NewStagingArea()
	index, err := store.GetIndexByHash(db, stagingArea, e)
	require.NoError(t, err)
	require.Equal(t, uint64(3), index)

	hash, err := store.GetHashByIndex(db, stagingArea, 2)
	require.NoError(t, err)
	require.True(t, hash.Equal(d))

	_, err = store.GetIndexByHash(db, stagingArea, c)
	require.True(t, database.IsNotFoundError(err))
}

func TestSelectedChainStoreStagesTwiceInOneArea(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	a, b, c := hashFromByte(1), hashFromByte(2), hashFromByte(3)

	stagingArea := model.NewStagingArea()
	require.NoError(t, store.Stage(db, stagingArea, &externalapi.SelectedChainPath{Added: []*externalapi.DomainHash{a, b}}))
	require.NoError(t, store.Stage(db, stagingArea, &externalapi.SelectedChainPath{
		Removed: []*externalapi.DomainHash{b},
		Added:   []*externalapi.DomainHash{c},
	}))

	hash, err := store.GetHashByIndex(db, stagingArea, 1)
	require.NoError(t, err)
	require.True(t, hash.Equal(c))

	commit(t, db, stagingArea)

	stagingArea = model.NewStagingArea()
	_, err = store.GetIndexByHash(db, stagingArea, b)
	require.True(t, database.IsNotFoundError(err))
	highest, exists, err := store.HighestChainBlockIndex(db, stagingArea)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, uint64(1), highest)
}

func TestSelectedChainStoreRejectsWrongRemovalOrder(t *testing.T) {
	db, store, teardown := prepareStore(t)
	defer teardown()

	a, b := hashFromByte(1), hashFromByte(2)

	stagingArea := model.NewStagingArea()
	require.NoError(t, store.Stage(db, stagingArea, &externalapi.SelectedChainPath{Added: []*externalapi.DomainHash{a, b}}))
	commit(t, db, stagingArea)

	stagingArea = model.NewStagingArea()
	err := store.Stage(db, stagingArea, &externalapi.SelectedChainPath{Removed: []*externalapi.DomainHash{a}})
	require.Error(t, err)
}
