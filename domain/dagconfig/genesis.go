// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math/big"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/blockheader"
	"github.com/calico-network/calicod/domain/consensus/utils/constants"
	"github.com/calico-network/calicod/domain/consensus/utils/subnetworks"
)

// genesisUTXOCommitment is the hash of the empty UTXO multiset, shared by every genesis block
var genesisUTXOCommitment = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x54, 0x4e, 0xb3, 0x14, 0x2c, 0x00, 0x0f, 0x0a,
	0xd2, 0xc7, 0x6a, 0xc4, 0x1f, 0x42, 0x22, 0xab,
	0xba, 0xba, 0xbe, 0xd8, 0x30, 0xee, 0xaf, 0xee,
	0x4b, 0x6d, 0xc5, 0x6b, 0x52, 0xd5, 0xca, 0xc0,
})

func newGenesisCoinbaseTx(payload []byte) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version:      0,
		Inputs:       []*externalapi.DomainTransactionInput{},
		Outputs:      []*externalapi.DomainTransactionOutput{},
		LockTime:     0,
		SubnetworkID: subnetworks.SubnetworkIDCoinbase,
		Gas:          0,
		Payload:      payload,
	}
}

func newGenesisBlock(hashMerkleRoot *externalapi.DomainHash, timeInMilliseconds int64, bits uint32, nonce uint64,
	coinbaseTx *externalapi.DomainTransaction) *externalapi.DomainBlock {

	return &externalapi.DomainBlock{
		Header: blockheader.NewImmutableBlockHeader(
			constants.BlockVersion,
			[]externalapi.BlockLevelParents{},
			hashMerkleRoot,
			&externalapi.DomainHash{},
			genesisUTXOCommitment,
			timeInMilliseconds,
			bits,
			nonce,
			0,
			0,
			big.NewInt(0),
			&externalapi.DomainHash{},
		),
		Transactions: []*externalapi.DomainTransaction{coinbaseTx},
	}
}

var genesisTxPayload = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // Blue score
	0x00, 0xe1, 0xf5, 0x05, 0x00, 0x00, 0x00, 0x00, // Subsidy
	0x00, 0x00, // Script version
	0x01,                                                 // Script length
	0x00,                                                 // Script
	0x43, 0x61, 0x6c, 0x69, 0x63, 0x6f, 0x43, 0x61, 0x74, // CalicoCat
}

// genesisCoinbaseTx is the coinbase transaction for the genesis block of
// the main network.
var genesisCoinbaseTx = newGenesisCoinbaseTx(genesisTxPayload)

// genesisMerkleRoot is the hash of the coinbase transaction of the main network genesis block.
var genesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x97, 0x91, 0x22, 0x53, 0xc6, 0x06, 0x71, 0x60,
	0x41, 0xbf, 0xd9, 0x81, 0xb5, 0x7b, 0x75, 0x6e,
	0x02, 0xc7, 0x5a, 0xeb, 0x32, 0x99, 0xa1, 0xfb,
	0xe4, 0x14, 0x7f, 0x36, 0xba, 0xf6, 0xd7, 0xd5,
})

// genesisBlock defines the genesis block of the block DAG which serves as the
// public transaction ledger for the main network.
var genesisBlock = newGenesisBlock(genesisMerkleRoot, 1729382833727, 0x2001f649, 1101, genesisCoinbaseTx)

// genesisHash is the hash of the genesis block of the main network.
var genesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xc0, 0x96, 0x6a, 0x36, 0x83, 0xf9, 0x0f, 0x0b,
	0xc7, 0x5c, 0x4f, 0xe2, 0xf2, 0xdd, 0xef, 0x4d,
	0xa0, 0xa7, 0x27, 0x1b, 0x27, 0xcc, 0x04, 0x6a,
	0x93, 0x78, 0x32, 0x65, 0xf4, 0x18, 0xad, 0xd6,
})

var testnetGenesisTxPayload = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // Blue score
	0x00, 0xe1, 0xf5, 0x05, 0x00, 0x00, 0x00, 0x00, // Subsidy
	0x00, 0x00, // Script version
	0x01,                                                       // Script length
	0x00,                                                       // Script
	0x43, 0x61, 0x6c, 0x69, 0x63, 0x6f, 0x54, 0x65, 0x73, 0x74, // CalicoTest
}

// testnetGenesisCoinbaseTx is the coinbase transaction for the genesis block of
// the test network.
var testnetGenesisCoinbaseTx = newGenesisCoinbaseTx(testnetGenesisTxPayload)

// testnetGenesisMerkleRoot is the hash of the coinbase transaction of the test network genesis block.
var testnetGenesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x02, 0xc0, 0x0e, 0xd5, 0xe6, 0x72, 0x31, 0x8d,
	0xd4, 0x78, 0x7a, 0x8f, 0x52, 0xc1, 0xed, 0xe7,
	0x26, 0xc2, 0x16, 0xcf, 0x9a, 0xfd, 0xbf, 0xfb,
	0x61, 0xa5, 0x13, 0xfd, 0x58, 0x70, 0x8b, 0x04,
})

// testnetGenesisBlock defines the genesis block of the block DAG which serves as the
// public transaction ledger for the test network.
var testnetGenesisBlock = newGenesisBlock(testnetGenesisMerkleRoot, 1713884672545, 0x1e7fec13, 203988, testnetGenesisCoinbaseTx)

// testnetGenesisHash is the hash of the genesis block of the test network.
var testnetGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xa7, 0xb4, 0xd6, 0x64, 0x98, 0xc6, 0x19, 0x9b,
	0xcc, 0xd2, 0x2f, 0x2a, 0x5f, 0xaa, 0x60, 0x30,
	0x52, 0xe7, 0x08, 0xd6, 0x44, 0x10, 0x78, 0x53,
	0x29, 0xd7, 0x43, 0x60, 0x0d, 0xfe, 0x02, 0x89,
})

var testnet11GenesisTxPayload = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // Blue score
	0x00, 0xe1, 0xf5, 0x05, 0x00, 0x00, 0x00, 0x00, // Subsidy
	0x00, 0x00, // Script version
	0x01,                                                                   // Script length
	0x00,                                                                   // Script
	0x43, 0x61, 0x6c, 0x69, 0x63, 0x6f, 0x54, 0x65, 0x73, 0x74, 0x1f, 0x1f, // CalicoTest + 0x1f 0x1f
}

// testnet11GenesisCoinbaseTx is the coinbase transaction for the genesis block of
// the test 11 network.
var testnet11GenesisCoinbaseTx = newGenesisCoinbaseTx(testnet11GenesisTxPayload)

// testnet11GenesisMerkleRoot is the hash of the coinbase transaction of the test 11 network genesis block.
var testnet11GenesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xb8, 0x4c, 0x2b, 0x36, 0x6e, 0xc2, 0xf8, 0x38,
	0x43, 0x8b, 0xbf, 0x1f, 0xcb, 0xc5, 0xe0, 0xdf,
	0x6e, 0xf5, 0xcc, 0x81, 0xdd, 0x65, 0x74, 0x9c,
	0x5a, 0x4b, 0xd7, 0x26, 0x81, 0x43, 0xb8, 0x08,
})

// testnet11GenesisBlock defines the genesis block of the block DAG which serves as the
// public transaction ledger for the test 11 network.
var testnet11GenesisBlock = newGenesisBlock(testnet11GenesisMerkleRoot, 1713884672545, 0x1e0ccace, 32701, testnet11GenesisCoinbaseTx)

// testnet11GenesisHash is the hash of the genesis block of the test 11 network.
var testnet11GenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0x5e, 0x44, 0x1c, 0xc3, 0x2d, 0x2e, 0x4c, 0x0a,
	0x33, 0x5a, 0x22, 0x6c, 0xe3, 0x68, 0x2b, 0x57,
	0xd1, 0x27, 0x49, 0x44, 0x32, 0x2c, 0x98, 0x70,
	0xc9, 0xe7, 0x55, 0x26, 0xf5, 0xde, 0x7f, 0x07,
})

var simnetGenesisTxPayload = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // Blue score
	0x00, 0xe1, 0xf5, 0x05, 0x00, 0x00, 0x00, 0x00, // Subsidy
	0x00, 0x00, // Script version
	0x01,                                                 // Script length
	0x00,                                                 // Script
	0x43, 0x61, 0x6c, 0x69, 0x63, 0x6f, 0x53, 0x69, 0x6d, // CalicoSim
}

// simnetGenesisCoinbaseTx is the coinbase transaction for the genesis block of
// the simulation network.
var simnetGenesisCoinbaseTx = newGenesisCoinbaseTx(simnetGenesisTxPayload)

// simnetGenesisMerkleRoot is the hash of the coinbase transaction of the simulation network genesis block.
var simnetGenesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xab, 0x3b, 0xf8, 0x09, 0x19, 0x33, 0x33, 0xae,
	0xef, 0x2d, 0xc9, 0x27, 0x15, 0xc8, 0x4f, 0x80,
	0xf2, 0x62, 0x68, 0xe4, 0xa5, 0xce, 0xb4, 0xc1,
	0xce, 0x46, 0x76, 0x8a, 0x42, 0xea, 0x11, 0xf8,
})

// simnetGenesisBlock defines the genesis block of the block DAG which serves as the
// public transaction ledger for the simulation network.
var simnetGenesisBlock = newGenesisBlock(simnetGenesisMerkleRoot, 1713885012324, 0x206789ab, 884, simnetGenesisCoinbaseTx)

// simnetGenesisHash is the hash of the genesis block of the simulation network.
var simnetGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xb9, 0xf3, 0x37, 0xab, 0xbe, 0xdc, 0xa6, 0x3d,
	0x9d, 0xa0, 0xb3, 0x7f, 0xb9, 0xff, 0xcd, 0x5f,
	0x6a, 0xdb, 0x17, 0x4c, 0x42, 0xad, 0xad, 0x94,
	0xfd, 0xad, 0x39, 0xd5, 0x51, 0xf3, 0xfc, 0x2e,
})

var devnetGenesisTxPayload = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // Blue score
	0x00, 0xe1, 0xf5, 0x05, 0x00, 0x00, 0x00, 0x00, // Subsidy
	0x00, 0x00, // Script version
	0x01,                                                 // Script length
	0x00,                                                 // Script
	0x43, 0x61, 0x6c, 0x69, 0x63, 0x6f, 0x44, 0x65, 0x76, // CalicoDev
}

// devnetGenesisCoinbaseTx is the coinbase transaction for the genesis block of
// the development network.
var devnetGenesisCoinbaseTx = newGenesisCoinbaseTx(devnetGenesisTxPayload)

// devnetGenesisMerkleRoot is the hash of the coinbase transaction of the development network genesis block.
var devnetGenesisMerkleRoot = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xf4, 0x80, 0xa6, 0x94, 0xe7, 0x7e, 0x51, 0x71,
	0x46, 0x02, 0x22, 0x55, 0x9f, 0x94, 0x33, 0x31,
	0x9c, 0xc3, 0x2d, 0x4d, 0x53, 0xa6, 0x7f, 0x05,
	0x30, 0x44, 0x47, 0xc6, 0xee, 0x29, 0xcf, 0x66,
})

// devnetGenesisBlock defines the genesis block of the block DAG which serves as the
// public transaction ledger for the development network.
var devnetGenesisBlock = newGenesisBlock(devnetGenesisMerkleRoot, 1713884849877, 0x203f87d5, 881, devnetGenesisCoinbaseTx)

// devnetGenesisHash is the hash of the genesis block of the development network.
var devnetGenesisHash = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{
	0xed, 0x4c, 0x19, 0x5c, 0x6b, 0x94, 0x6a, 0x25,
	0xa7, 0x06, 0xe3, 0xbf, 0x52, 0xa8, 0x2d, 0x7d,
	0x4d, 0x8e, 0x37, 0x9b, 0x93, 0x62, 0x88, 0x82,
	0x65, 0xf5, 0xea, 0xcb, 0xce, 0x6c, 0xb8, 0x5d,
})
