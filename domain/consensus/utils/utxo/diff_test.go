package utxo

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/stretchr/testify/require"
)

func testOutpoint(b byte, index uint32) *externalapi.DomainOutpoint {
	var id [externalapi.DomainHashSize]byte
	id[0] = b
	return externalapi.NewDomainOutpoint(externalapi.NewDomainTransactionIDFromByteArray(&id), index)
}

func testEntry(amount uint64, daaScore uint64) externalapi.UTXOEntry {
	return NewUTXOEntry(amount, &externalapi.ScriptPublicKey{Script: []byte{0x51}}, false, daaScore)
}

func TestAddThenRemoveCancels(t *testing.T) {
	diff := NewMutableUTXODiff()
	outpoint := testOutpoint(1, 0)
	entry := testEntry(10, 1)

	require.NoError(t, diff.AddEntry(outpoint, entry))
	require.NoError(t, diff.RemoveEntry(outpoint, entry))
	require.Equal(t, 0, diff.ToAdd().Len())
	require.Equal(t, 0, diff.ToRemove().Len())
}

func TestRemoveThenReAddCancels(t *testing.T) {
	diff := NewMutableUTXODiff()
	outpoint := testOutpoint(1, 0)
	entry := testEntry(10, 1)

	require.NoError(t, diff.RemoveEntry(outpoint, entry))
	require.NoError(t, diff.AddEntry(outpoint, entry))
	require.Equal(t, 0, diff.ToAdd().Len())
	require.Equal(t, 0, diff.ToRemove().Len())
}

func TestReAddWithDifferentEntryReplaces(t *testing.T) {
	diff := NewMutableUTXODiff()
	outpoint := testOutpoint(1, 0)

	require.NoError(t, diff.RemoveEntry(outpoint, testEntry(10, 1)))
	require.NoError(t, diff.AddEntry(outpoint, testEntry(10, 2)))

	added, ok := diff.ToAdd().Get(outpoint)
	require.True(t, ok)
	require.Equal(t, uint64(2), added.BlockDAAScore())
	require.True(t, diff.ToRemove().Contains(outpoint))
}

func TestDoubleOperationsFail(t *testing.T) {
	diff := NewMutableUTXODiff()
	outpoint := testOutpoint(1, 0)

	require.NoError(t, diff.AddEntry(outpoint, testEntry(10, 1)))
	require.ErrorIs(t, diff.AddEntry(outpoint, testEntry(10, 1)), ErrDoubleAdd)

	other := testOutpoint(2, 0)
	require.NoError(t, diff.RemoveEntry(other, testEntry(5, 1)))
	require.ErrorIs(t, diff.RemoveEntry(other, testEntry(5, 1)), ErrDoubleRemove)
}

func TestWithDiffAndReversed(t *testing.T) {
	spent := testOutpoint(1, 0)
	created := testOutpoint(2, 0)

	first := NewMutableUTXODiff()
	require.NoError(t, first.RemoveEntry(spent, testEntry(10, 1)))
	require.NoError(t, first.AddEntry(created, testEntry(9, 2)))
	firstDiff := first.ToImmutable()

	// Applying a diff and then its reverse leaves nothing behind.
	combined, err := firstDiff.WithDiff(firstDiff.Reversed())
	require.NoError(t, err)
	require.Equal(t, 0, combined.ToAdd().Len())
	require.Equal(t, 0, combined.ToRemove().Len())

	second := NewMutableUTXODiff()
	require.NoError(t, second.RemoveEntry(created, testEntry(9, 2)))
	combined, err = firstDiff.WithDiff(second.ToImmutable())
	require.NoError(t, err)
	require.Equal(t, 0, combined.ToAdd().Len())
	require.True(t, combined.ToRemove().Contains(spent))
}

func TestImmutableReferenceInvalidatedByMutation(t *testing.T) {
	diff := NewMutableUTXODiff()
	immutable := diff.ToImmutable()
	require.NoError(t, diff.AddEntry(testOutpoint(1, 0), testEntry(1, 1)))
	require.Panics(t, func() { immutable.ToAdd() })
}

func TestOutpointSerialization(t *testing.T) {
	outpoint := testOutpoint(7, 300)
	deserialized, err := DeserializeOutpoint(SerializeOutpoint(outpoint))
	require.NoError(t, err)
	require.Equal(t, *outpoint, *deserialized)

	_, err = DeserializeOutpoint([]byte{1, 2, 3})
	require.Error(t, err)
}
