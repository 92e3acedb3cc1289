package ldb

import (
	"fmt"
	"io/ioutil"
	"os"
	"testing"

	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/stretchr/testify/require"
)

func prepareDatabaseForTest(t *testing.T, testName string) (ldb *LevelDB, teardownFunc func()) {
	path, err := ioutil.TempDir("", testName)
	require.NoError(t, err)
	ldb, err = NewLevelDB(path, 8)
	require.NoError(t, err)
	teardownFunc = func() {
		require.NoError(t, ldb.Close())
		require.NoError(t, os.RemoveAll(path))
	}
	return ldb, teardownFunc
}

func TestLevelDBSanity(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestLevelDBSanity")
	defer teardownFunc()

	key := database.MakeBucket([]byte("bucket")).Key([]byte("key"))
	_, err := ldb.Get(key)
	require.True(t, database.IsNotFoundError(err))

	require.NoError(t, ldb.Put(key, []byte("value")))
	exists, err := ldb.Has(key)
	require.NoError(t, err)
	require.True(t, exists)

	value, err := ldb.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("value"), value)

	require.NoError(t, ldb.Delete(key))
	exists, err = ldb.Has(key)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestLevelDBTransactionCommitAndRollback(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestLevelDBTransactionCommitAndRollback")
	defer teardownFunc()

	bucket := database.MakeBucket([]byte("tx"))
	committedKey := bucket.Key([]byte("committed"))
	rolledBackKey := bucket.Key([]byte("rolledBack"))

	dbTx, err := ldb.Begin()
	require.NoError(t, err)
	require.NoError(t, dbTx.Put(committedKey, []byte("1")))

	// Writes are not visible before commit, neither through the
	// transaction nor through the database.
	exists, err := dbTx.Has(committedKey)
	require.NoError(t, err)
	require.False(t, exists)
	exists, err = ldb.Has(committedKey)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, dbTx.Commit())
	require.Error(t, dbTx.Commit())
	require.NoError(t, dbTx.RollbackUnlessClosed())

	exists, err = ldb.Has(committedKey)
	require.NoError(t, err)
	require.True(t, exists)

	dbTx, err = ldb.Begin()
	require.NoError(t, err)
	require.NoError(t, dbTx.Put(rolledBackKey, []byte("2")))
	require.NoError(t, dbTx.Delete(committedKey))
	require.NoError(t, dbTx.Rollback())

	exists, err = ldb.Has(rolledBackKey)
	require.NoError(t, err)
	require.False(t, exists)
	exists, err = ldb.Has(committedKey)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCursorSanity(t *testing.T) {
	ldb, teardownFunc := prepareDatabaseForTest(t, "TestCursorSanity")
	defer teardownFunc()

	bucket := database.MakeBucket([]byte("bucket"))
	for i := 0; i < 10; i++ {
		require.NoError(t, ldb.Put(bucket.Key([]byte(fmt.Sprintf("key%d", i))), []byte(fmt.Sprintf("value%d", i))))
	}
	require.NoError(t, ldb.Put(database.MakeBucket([]byte("other")).Key([]byte("key")), []byte("other")))

	cursor, err := ldb.Cursor(bucket)
	require.NoError(t, err)

	count := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("key%d", count)), key.Suffix())
		value, err := cursor.Value()
		require.NoError(t, err)
		require.Equal(t, []byte(fmt.Sprintf("value%d", count)), value)
		count++
	}
	require.Equal(t, 10, count)

	require.NoError(t, cursor.Seek(bucket.Key([]byte("key5"))))
	value, err := cursor.Value()
	require.NoError(t, err)
	require.Equal(t, []byte("value5"), value)

	err = cursor.Seek(bucket.Key([]byte("key55")))
	require.True(t, database.IsNotFoundError(err))

	require.NoError(t, cursor.Close())
	require.Error(t, cursor.Close())

	func() {
		defer func() {
			require.NotNil(t, recover())
		}()
		cursor.Next()
	}()
}
