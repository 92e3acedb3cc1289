package dagconfig

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/blockheader"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/constants"
	"github.com/calico-network/calicod/domain/consensus/utils/merkle"
	"github.com/calico-network/calicod/domain/consensus/utils/pow"
	"github.com/calico-network/calicod/domain/consensus/utils/transactionhelper"
)

// TestGenesisBlocks rebuilds every genesis block from its coinbase and checks it
// against the hash literals of its network.
func TestGenesisBlocks(t *testing.T) {
	tests := []struct {
		name       string
		params     *Params
		merkleRoot string
		hash       string
	}{
		{
			name:       "mainnet",
			params:     &MainnetParams,
			merkleRoot: "97912253c606716041bfd981b57b756e02c75aeb3299a1fbe4147f36baf6d7d5",
			hash:       "c0966a3683f90f0bc75c4fe2f2ddef4da0a7271b27cc046a93783265f418add6",
		},
		{
			name:       "testnet",
			params:     &TestnetParams,
			merkleRoot: "02c00ed5e672318dd4787a8f52c1ede726c216cf9afdbffb61a513fd58708b04",
			hash:       "a7b4d66498c6199bccd22f2a5faa603052e708d64410785329d743600dfe0289",
		},
		{
			name:       "testnet-11",
			params:     &Testnet11Params,
			merkleRoot: "b84c2b366ec2f838438bbf1fcbc5e0df6ef5cc81dd65749c5a4bd7268143b808",
			hash:       "5e441cc32d2e4c0a335a226ce3682b57d1274944322c9870c9e75526f5de7f07",
		},
		{
			name:       "simnet",
			params:     &SimnetParams,
			merkleRoot: "ab3bf809193333aeef2dc92715c84f80f26268e4a5ceb4c1ce46768a42ea11f8",
			hash:       "b9f337abbedca63d9da0b37fb9ffcd5f6adb174c42adad94fdad39d551f3fc2e",
		},
		{
			name:       "devnet",
			params:     &DevnetParams,
			merkleRoot: "f480a694e77e5171460222559f9433319cc32d4d53a67f05304447c6ee29cf66",
			hash:       "ed4c195c6b946a25a706e3bf52a82d7d4d8e379b9362888265f5eacbce6cb85d",
		},
	}

	seen := make(map[externalapi.DomainHash]string)
	for _, test := range tests {
		block := test.params.GenesisBlock

		if block.Header.Version() != constants.BlockVersion {
			t.Errorf("%s: genesis version is %d, expected %d", test.name, block.Header.Version(), constants.BlockVersion)
		}

		root := merkle.CalculateHashMerkleRoot(block.Transactions)
		if root.String() != test.merkleRoot {
			t.Errorf("%s: calculated merkle root %s, expected %s", test.name, root, test.merkleRoot)
		}
		if !root.Equal(block.Header.HashMerkleRoot()) {
			t.Errorf("%s: header merkle root %s does not match the calculated root %s",
				test.name, block.Header.HashMerkleRoot(), root)
		}

		hash := consensushashing.BlockHash(block)
		if hash.String() != test.hash {
			t.Errorf("%s: calculated genesis hash %s, expected %s", test.name, hash, test.hash)
		}
		if !hash.Equal(test.params.GenesisHash) {
			t.Errorf("%s: GenesisHash %s does not match the genesis block hash %s",
				test.name, test.params.GenesisHash, hash)
		}
		if other, ok := seen[*hash]; ok {
			t.Errorf("%s: genesis hash %s is shared with %s", test.name, hash, other)
		}
		seen[*hash] = test.name

		if !test.params.SkipProofOfWork && !pow.CheckProofOfWorkByBits(block.Header.ToMutable()) {
			t.Errorf("%s: genesis nonce %d does not satisfy bits %08x",
				test.name, block.Header.Nonce(), block.Header.Bits())
		}

		if len(block.Header.DirectParents()) != 0 {
			t.Errorf("%s: genesis has %d parents", test.name, len(block.Header.DirectParents()))
		}
		if !transactionhelper.IsCoinBase(block.Transactions[0]) {
			t.Errorf("%s: the first genesis transaction is not a coinbase", test.name)
		}
		blueScore, _, _, err := transactionhelper.ExtractCoinbaseDataBlueScoreAndSubsidy(block.Transactions[0])
		if err != nil {
			t.Fatalf("%s: ExtractCoinbaseDataBlueScoreAndSubsidy: %s", test.name, err)
		}
		if blueScore != 0 {
			t.Errorf("%s: genesis coinbase blue score is %d", test.name, blueScore)
		}
	}
}

// TestLinearHeaderChainHashes builds 20 headers on top of the mainnet genesis,
// each committing to a coinbase carrying its own blue score, and checks the tip
// against fixed values.
func TestLinearHeaderChainHashes(t *testing.T) {
	const (
		chainLength        = 21
		expectedMerkleRoot = "9e4e4e395d1d911068f5b450684e69513dd45a58644665d51814ebb9fc42cde2"
		expectedTipHash    = "52c40418950b7726d6fdc226cab7f81eac6b9789c2e6e4167cb75ac8796a9ba3"
	)

	genesis := MainnetParams.GenesisBlock
	genesisHash := consensushashing.BlockHash(genesis)
	if !genesisHash.Equal(MainnetParams.GenesisHash) {
		t.Fatalf("genesis hash %s does not match %s", genesisHash, MainnetParams.GenesisHash)
	}

	tipHash := genesisHash
	var tipMerkleRoot *externalapi.DomainHash
	for i := uint64(1); i < chainLength; i++ {
		payload := make([]byte, len(genesisTxPayload))
		copy(payload, genesisTxPayload)
		binary.LittleEndian.PutUint64(payload[:8], i)
		coinbase := newGenesisCoinbaseTx(payload)

		tipMerkleRoot = merkle.CalculateHashMerkleRoot([]*externalapi.DomainTransaction{coinbase})
		header := blockheader.NewImmutableBlockHeader(
			constants.BlockVersion,
			[]externalapi.BlockLevelParents{{tipHash}},
			tipMerkleRoot,
			&externalapi.DomainHash{},
			genesisUTXOCommitment,
			genesis.Header.TimeInMilliseconds()+int64(i)*1000,
			genesis.Header.Bits(),
			i,
			i,
			i,
			new(big.Int).SetUint64(i),
			genesisHash,
		)
		tipHash = consensushashing.HeaderHash(header)
	}

	if tipMerkleRoot.String() != expectedMerkleRoot {
		t.Fatalf("tip merkle root is %s, expected %s", tipMerkleRoot, expectedMerkleRoot)
	}
	if tipHash.String() != expectedTipHash {
		t.Fatalf("tip hash is %s, expected %s", tipHash, expectedTipHash)
	}
}
