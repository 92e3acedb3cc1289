package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/difficulty"
	"github.com/calico-network/calicod/domain/dagconfig"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet               bool   `long:"testnet" description:"Use the test network"`
	Testnet11             bool   `long:"testnet-11" description:"Use the 10 blocks per second test network"`
	Simnet                bool   `long:"simnet" description:"Use the simulation test network"`
	Devnet                bool   `long:"devnet" description:"Use the development test network"`
	NetSuffix             uint16 `long:"netsuffix" description:"Testnet network suffix number"`
	OverrideDAGParamsFile string `long:"override-dag-params-file" description:"Overrides DAG params (allowed only on devnet)"`

	ActiveNetParams *dagconfig.Params
}

type overrideDAGParamsConfig struct {
	K                                *externalapi.KType `json:"k"`
	MaxBlockParents                  *int               `json:"maxBlockParents"`
	MergeSetSizeLimit                *uint64            `json:"mergeSetSizeLimit"`
	FinalityDepth                    *uint64            `json:"finalityDepth"`
	MergeDepth                       *uint64            `json:"mergeDepth"`
	PruningDepth                     *uint64            `json:"pruningDepth"`
	PruningProofM                    *uint64            `json:"pruningProofM"`
	MaxCoinbasePayloadLength         *uint64            `json:"maxCoinbasePayloadLength"`
	PowMax                           *string            `json:"powMax"`
	TargetTimePerBlockInMilliSeconds *int64             `json:"targetTimePerBlockInMilliSeconds"`
	TimestampDeviationTolerance      *uint64            `json:"timestampDeviationTolerance"`
	SkipProofOfWork                  *bool              `json:"skipProofOfWork"`
}

// ResolveNetwork parses the network command line argument and sets NetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Selected parameters are copied so that suffixes and overrides never
	// leak into the package level network definitions
	params := dagconfig.MainnetParams
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		params = dagconfig.TestnetParams
	}
	if networkFlags.Testnet11 {
		numNets++
		params = dagconfig.Testnet11Params
	}
	if networkFlags.Simnet {
		numNets++
		params = dagconfig.SimnetParams
	}
	if networkFlags.Devnet {
		numNets++
		params = dagconfig.DevnetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, testnet-11, simnet, devnet, etc.) cannot be used " +
			"together. Please choose only one network"
		err := errors.Errorf(message)
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	networkFlags.ActiveNetParams = &params

	if networkFlags.NetSuffix != 0 {
		if !networkFlags.Testnet {
			return errors.New("net suffixes can only be used with testnet")
		}
		networkFlags.ActiveNetParams.Name = fmt.Sprintf("%s-%d", networkFlags.ActiveNetParams.Name,
			networkFlags.NetSuffix)
	}

	err := networkFlags.overrideDAGParams()
	if err != nil {
		return err
	}

	return networkFlags.ActiveNetParams.Validate()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideDAGParams() error {
	if networkFlags.OverrideDAGParamsFile == "" {
		return nil
	}

	if !networkFlags.Devnet {
		return errors.Errorf("override-dag-params-file is allowed only when using devnet")
	}

	overrideDAGParamsFile, err := os.Open(networkFlags.OverrideDAGParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideDAGParamsFile.Close()

	decoder := json.NewDecoder(overrideDAGParamsFile)
	config := &overrideDAGParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "failed to decode %s", networkFlags.OverrideDAGParamsFile)
	}

	return config.apply(networkFlags.ActiveNetParams)
}

func (config *overrideDAGParamsConfig) apply(params *dagconfig.Params) error {
	if config.K != nil {
		params.K = *config.K
	}

	if config.MaxBlockParents != nil {
		params.MaxBlockParents = *config.MaxBlockParents
	}

	if config.MergeSetSizeLimit != nil {
		params.MergeSetSizeLimit = *config.MergeSetSizeLimit
	}

	if config.FinalityDepth != nil {
		params.FinalityDepth = *config.FinalityDepth
	}

	if config.MergeDepth != nil {
		params.MergeDepth = *config.MergeDepth
	}

	if config.PruningDepth != nil {
		params.PruningDepth = *config.PruningDepth
	}

	if config.PruningProofM != nil {
		params.PruningProofM = *config.PruningProofM
	}

	if config.MaxCoinbasePayloadLength != nil {
		params.MaxCoinbasePayloadLength = *config.MaxCoinbasePayloadLength
	}

	if config.PowMax != nil {
		powMax, ok := big.NewInt(0).SetString(*config.PowMax, 16)
		if !ok {
			return errors.Errorf("couldn't convert %s to big int", *config.PowMax)
		}

		genesisTarget := difficulty.CompactToBig(params.GenesisBlock.Header.Bits())
		if powMax.Cmp(genesisTarget) < 0 {
			return errors.Errorf("powMax (%s) is smaller than genesis's target (%s)", powMax.Text(16),
				genesisTarget.Text(16))
		}
		params.PowMax = powMax
	}

	if config.TargetTimePerBlockInMilliSeconds != nil {
		params.TargetTimePerBlock = time.Duration(*config.TargetTimePerBlockInMilliSeconds) * time.Millisecond
	}

	if config.TimestampDeviationTolerance != nil {
		params.TimestampDeviationTolerance = *config.TimestampDeviationTolerance
	}

	if config.SkipProofOfWork != nil {
		params.SkipProofOfWork = *config.SkipProofOfWork
	}

	return nil
}
