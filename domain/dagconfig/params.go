// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math/big"
	"time"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// These variables are the DAG proof-of-work limit parameters for each default
// network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowMax is the highest proof of work value a Calico block can
	// have for the main network. It is the value 2^255 - 1.
	mainPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// testnetPowMax is the highest proof of work value a Calico block
	// can have for the test network. It is the value 2^255 - 1.
	testnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// simnetPowMax is the highest proof of work value a Calico block
	// can have for the simulation test network. It is the value 2^255 - 1.
	simnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// devnetPowMax is the highest proof of work value a Calico block
	// can have for the development network. It is the value
	// 2^255 - 1.
	devnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

// Params defines a Calico network by its parameters. These parameters may be
// used by Calico applications to differentiate networks as well as addresses
// and keys for one network from those intended for use on another network.
type Params struct {
	// K defines the K parameter for GHOSTDAG consensus algorithm.
	// See ghostdagmanager for further details.
	K externalapi.KType

	// Name defines a human-readable identifier for the network.
	Name string

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisBlock defines the first block of the DAG.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// PowMax defines the highest allowed proof of work value for a block
	// as a uint256.
	PowMax *big.Int

	// BlocksPerSecond is the target block rate of the network
	BlocksPerSecond uint64

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// FinalityDepth is the blue score distance below the virtual selected parent
	// under which the selected chain can no longer be reorganized.
	FinalityDepth uint64

	// MergeDepth is the maximal blue score distance between a block and any block it merges
	MergeDepth uint64

	// MergeSetSizeLimit is the maximal size of a block's mergeset
	MergeSetSizeLimit uint64

	// MaxBlockParents is the maximum number of direct parents a block may have
	MaxBlockParents int

	// PruningDepth is the minimal blue score distance between the virtual and the pruning point
	PruningDepth uint64

	// PruningProofM is the number of headers per level a pruning point proof is built from
	PruningProofM uint64

	// MaxBlockLevel is the block level of genesis, and the upper bound of any block level
	MaxBlockLevel int

	// TimestampDeviationTolerance is the number of target block times a header
	// timestamp may lie in the future.
	TimestampDeviationTolerance uint64

	// BaseSubsidy is the maximal sum of coinbase outputs of a block
	BaseSubsidy uint64

	// MaxCoinbasePayloadLength is the maximum length in bytes allowed for a block's coinbase's payload
	MaxCoinbasePayloadLength uint64

	// MaxBlockTransactions is the maximal number of transactions in a block
	MaxBlockTransactions uint64

	// SkipProofOfWork indicates whether proof of work should be checked.
	SkipProofOfWork bool
}

// NetworkName returns the network name, including the suffix for suffixed networks
func (p *Params) NetworkName() string {
	return p.Name
}

// FinalityDuration returns the wall-clock duration of the finality window
func (p *Params) FinalityDuration() time.Duration {
	return p.TargetTimePerBlock * time.Duration(p.FinalityDepth)
}

// Validate checks the internal consistency of the parameters
func (p *Params) Validate() error {
	if p.K == 0 {
		return errors.Errorf("network %s: K must be positive", p.Name)
	}
	if p.FinalityDepth == 0 {
		return errors.Errorf("network %s: finality depth must be positive", p.Name)
	}
	if p.PruningDepth < p.FinalityDepth {
		return errors.Errorf("network %s: pruning depth %d is below the finality depth %d",
			p.Name, p.PruningDepth, p.FinalityDepth)
	}
	if p.MaxBlockParents < 1 {
		return errors.Errorf("network %s: max block parents must be positive", p.Name)
	}
	if p.MergeSetSizeLimit < uint64(p.K)+1 {
		return errors.Errorf("network %s: mergeset size limit %d is below K+1", p.Name, p.MergeSetSizeLimit)
	}
	return nil
}

func newParams(name, defaultPort string, bps uint64, genesisBlock *externalapi.DomainBlock,
	genesisHash *externalapi.DomainHash, powMax *big.Int) Params {

	k, finalityDepth, mergeDepth, mergeSetSizeLimit, pruningDepth, maxBlockParents := consensusParamsForBPS(bps)
	return Params{
		K:                           k,
		Name:                        name,
		DefaultPort:                 defaultPort,
		GenesisBlock:                genesisBlock,
		GenesisHash:                 genesisHash,
		PowMax:                      powMax,
		BlocksPerSecond:             bps,
		TargetTimePerBlock:          time.Second / time.Duration(bps),
		FinalityDepth:               finalityDepth,
		MergeDepth:                  mergeDepth,
		MergeSetSizeLimit:           mergeSetSizeLimit,
		MaxBlockParents:             maxBlockParents,
		PruningDepth:                pruningDepth,
		PruningProofM:               defaultPruningProofM,
		MaxBlockLevel:               defaultMaxBlockLevel,
		TimestampDeviationTolerance: defaultTimestampDeviationTolerance,
		BaseSubsidy:                 defaultBaseSubsidy,
		MaxCoinbasePayloadLength:    defaultMaxCoinbasePayloadLength,
		MaxBlockTransactions:        defaultMaxBlockTransactions,
	}
}

// MainnetParams defines the network parameters for the main Calico network.
var MainnetParams = newParams("calico-mainnet", "26111", 1, genesisBlock, genesisHash, mainPowMax)

// TestnetParams defines the network parameters for the test Calico network.
var TestnetParams = newParams("calico-testnet", "26211", 1, testnetGenesisBlock, testnetGenesisHash, testnetPowMax)

// Testnet11Params defines the network parameters for the 10 BPS test Calico network.
var Testnet11Params = newParams("calico-testnet-11", "26311", 10, testnet11GenesisBlock, testnet11GenesisHash, testnetPowMax)

// SimnetParams defines the network parameters for the simulation test Calico
// network. Proof of work is not checked on this network.
var SimnetParams = func() Params {
	params := newParams("calico-simnet", "26511", 1, simnetGenesisBlock, simnetGenesisHash, simnetPowMax)
	params.SkipProofOfWork = true
	return params
}()

// DevnetParams defines the network parameters for the development Calico network.
var DevnetParams = newParams("calico-devnet", "26611", 1, devnetGenesisBlock, devnetGenesisHash, devnetPowMax)

var (
	// ErrDuplicateNet describes an error where the parameters for a Calico
	// network could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate Calico network")

	// ErrUnknownNet is returned when looking up a network name that was never registered
	ErrUnknownNet = errors.New("unknown Calico network")
)

var registeredNets = make(map[string]*Params)

// Register registers the network parameters for a Calico network. This may
// error with ErrDuplicateNet if the network is already registered (either
// due to a previous Register call, or the network being one of the default
// networks).
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Name] = params
	return nil
}

// ParamsByName returns the registered network with the given name
func ParamsByName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "network %s", name)
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&Testnet11Params)
	mustRegister(&SimnetParams)
	mustRegister(&DevnetParams)
}
