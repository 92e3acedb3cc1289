package serialization

import (
	"math/big"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/blockheader"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/utxo"
	"github.com/stretchr/testify/require"
)

func hashFromByte(b byte) *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{b})
}

func testHeader() externalapi.BlockHeader {
	return blockheader.NewImmutableBlockHeader(
		1,
		[]externalapi.BlockLevelParents{{hashFromByte(1), hashFromByte(2)}, {hashFromByte(3)}},
		hashFromByte(4),
		hashFromByte(5),
		hashFromByte(6),
		1700000000000,
		0x207fffff,
		42,
		7,
		6,
		big.NewInt(123456),
		hashFromByte(7),
	)
}

func TestBlockRecordPreservesHash(t *testing.T) {
	block := &externalapi.DomainBlock{
		Header: testHeader(),
		Transactions: []*externalapi.DomainTransaction{{
			Version: 0,
			Inputs: []*externalapi.DomainTransactionInput{{
				PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{}, Index: 3},
				SignatureScript:  []byte{1, 2},
				Sequence:         9,
				SigOpCount:       1,
			}},
			Outputs: []*externalapi.DomainTransactionOutput{{
				Value:           50,
				ScriptPublicKey: &externalapi.ScriptPublicKey{Script: []byte{0xab}, Version: 0},
			}},
			Payload: []byte{0xcd},
		}},
	}

	recordBytes, err := Marshal(DomainBlockToDbBlock(block))
	require.NoError(t, err)

	dbBlock := &DbBlock{}
	require.NoError(t, Unmarshal(recordBytes, dbBlock))
	decoded, err := DbBlockToDomainBlock(dbBlock)
	require.NoError(t, err)

	require.True(t, consensushashing.BlockHash(block).Equal(consensushashing.BlockHash(decoded)))
	require.True(t, consensushashing.TransactionID(block.Transactions[0]).Equal(
		consensushashing.TransactionID(decoded.Transactions[0])))
}

func TestGHOSTDAGDataRecord(t *testing.T) {
	data := externalapi.NewBlockGHOSTDAGData(
		10,
		big.NewInt(99),
		hashFromByte(1),
		[]*externalapi.DomainHash{hashFromByte(1), hashFromByte(2)},
		[]*externalapi.DomainHash{hashFromByte(3)},
		map[externalapi.DomainHash]externalapi.KType{*hashFromByte(1): 0, *hashFromByte(2): 1},
	)
	recordBytes, err := Marshal(BlockGHOSTDAGDataToDBBlockGHOSTDAGData(data))
	require.NoError(t, err)

	dbData := &DbBlockGHOSTDAGData{}
	require.NoError(t, Unmarshal(recordBytes, dbData))
	decoded, err := DBBlockGHOSTDAGDataToBlockGHOSTDAGData(dbData)
	require.NoError(t, err)
	require.True(t, data.Equal(decoded))
}

func TestGenesisGHOSTDAGDataHasNoSelectedParent(t *testing.T) {
	data := externalapi.NewBlockGHOSTDAGData(0, big.NewInt(0), nil, nil, nil,
		map[externalapi.DomainHash]externalapi.KType{})
	recordBytes, err := Marshal(BlockGHOSTDAGDataToDBBlockGHOSTDAGData(data))
	require.NoError(t, err)

	dbData := &DbBlockGHOSTDAGData{}
	require.NoError(t, Unmarshal(recordBytes, dbData))
	decoded, err := DBBlockGHOSTDAGDataToBlockGHOSTDAGData(dbData)
	require.NoError(t, err)
	require.Nil(t, decoded.SelectedParent())
	require.Zero(t, decoded.BlueWork().Sign())
}

func TestUTXODiffRecord(t *testing.T) {
	spk := &externalapi.ScriptPublicKey{Script: []byte{1}, Version: 0}
	outpointA := externalapi.DomainOutpoint{TransactionID: *(*externalapi.DomainTransactionID)(hashFromByte(1)), Index: 0}
	outpointB := externalapi.DomainOutpoint{TransactionID: *(*externalapi.DomainTransactionID)(hashFromByte(2)), Index: 1}
	toAdd := utxo.NewUTXOCollection(map[externalapi.DomainOutpoint]externalapi.UTXOEntry{
		outpointA: utxo.NewUTXOEntry(10, spk, true, 5),
	})
	toRemove := utxo.NewUTXOCollection(map[externalapi.DomainOutpoint]externalapi.UTXOEntry{
		outpointB: utxo.NewUTXOEntry(20, spk, false, 3),
	})
	diff, err := utxo.NewUTXODiffFromCollections(toAdd, toRemove)
	require.NoError(t, err)

	dbDiff, err := UTXODiffToDBUTXODiff(diff)
	require.NoError(t, err)
	recordBytes, err := Marshal(dbDiff)
	require.NoError(t, err)

	decodedDbDiff := &DbUTXODiff{}
	require.NoError(t, Unmarshal(recordBytes, decodedDbDiff))
	decoded, err := DBUTXODiffToUTXODiff(decodedDbDiff)
	require.NoError(t, err)

	entry, ok := decoded.ToAdd().Get(&outpointA)
	require.True(t, ok)
	require.True(t, entry.Equal(utxo.NewUTXOEntry(10, spk, true, 5)))
	entry, ok = decoded.ToRemove().Get(&outpointB)
	require.True(t, ok)
	require.Equal(t, uint64(20), entry.Amount())
}

func TestRelationsAndProofRecords(t *testing.T) {
	relations := &model.BlockRelations{
		Parents:  []*externalapi.DomainHash{hashFromByte(1)},
		Children: []*externalapi.DomainHash{hashFromByte(2), hashFromByte(3)},
	}
	recordBytes, err := Marshal(DomainBlockRelationsToDbBlockRelations(relations))
	require.NoError(t, err)
	dbRelations := &DbBlockRelations{}
	require.NoError(t, Unmarshal(recordBytes, dbRelations))
	decodedRelations, err := DbBlockRelationsToDomainBlockRelations(dbRelations)
	require.NoError(t, err)
	require.True(t, relations.Equal(decodedRelations))

	proof := &externalapi.PruningPointProof{Headers: [][]externalapi.BlockHeader{{testHeader()}}}
	recordBytes, err = Marshal(PruningPointProofToDbPruningPointProof(proof))
	require.NoError(t, err)
	dbProof := &DbPruningPointProof{}
	require.NoError(t, Unmarshal(recordBytes, dbProof))
	decodedProof, err := DbPruningPointProofToPruningPointProof(dbProof)
	require.NoError(t, err)
	require.Len(t, decodedProof.Headers, 1)
	require.True(t, decodedProof.Headers[0][0].Equal(proof.Headers[0][0]))
}

func TestUnmarshalGarbageFails(t *testing.T) {
	require.Error(t, Unmarshal([]byte{0xc1}, &DbBlockHeader{}))
}
