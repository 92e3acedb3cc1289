package transactionhelper

import (
	"encoding/binary"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/constants"
	"github.com/calico-network/calicod/domain/consensus/utils/subnetworks"
	"github.com/pkg/errors"
)

// CoinbaseTransactionIndex is the index of the coinbase transaction in every block
const CoinbaseTransactionIndex = 0

const uint64Len = 8
const uint16Len = 2
const lengthOfScriptPubKeyLength = 1

// CoinbasePayloadMinLength is the length of the fixed part of a coinbase payload
const CoinbasePayloadMinLength = uint64Len + uint64Len + uint16Len + lengthOfScriptPubKeyLength

// IsCoinBase determines whether or not a transaction is a coinbase transaction. A coinbase
// transaction is a special transaction created by miners that distributes fees and block subsidy
// to the previous blocks' miners, and specifies the script_pub_key that will be used to pay the current
// miner in future blocks. Each input of the coinbase transaction should set index to maximum
// value and reference the relevant block id, instead of previous transaction id.
func IsCoinBase(tx *externalapi.DomainTransaction) bool {
	// A coinbase transaction must have subnetwork id SubnetworkIDCoinbase
	return tx.SubnetworkID == subnetworks.SubnetworkIDCoinbase
}

// SerializeCoinbasePayload builds a coinbase payload:
// blueScore | subsidy | script version | script length | script | extra data
func SerializeCoinbasePayload(blueScore uint64, subsidy uint64, coinbaseData *externalapi.DomainCoinbaseData) ([]byte, error) {
	scriptLengthOfScriptPubKey := len(coinbaseData.ScriptPublicKey.Script)
	if scriptLengthOfScriptPubKey > 255 {
		return nil, errors.Errorf("script public key of length %d is longer than the maximum 255",
			scriptLengthOfScriptPubKey)
	}

	payload := make([]byte, CoinbasePayloadMinLength+scriptLengthOfScriptPubKey+len(coinbaseData.ExtraData))
	binary.LittleEndian.PutUint64(payload[:uint64Len], blueScore)
	binary.LittleEndian.PutUint64(payload[uint64Len:], subsidy)
	binary.LittleEndian.PutUint16(payload[2*uint64Len:], coinbaseData.ScriptPublicKey.Version)
	payload[2*uint64Len+uint16Len] = uint8(scriptLengthOfScriptPubKey)
	copy(payload[CoinbasePayloadMinLength:], coinbaseData.ScriptPublicKey.Script)
	copy(payload[CoinbasePayloadMinLength+scriptLengthOfScriptPubKey:], coinbaseData.ExtraData)
	return payload, nil
}

// ExtractCoinbaseDataBlueScoreAndSubsidy deserializes a coinbase payload
func ExtractCoinbaseDataBlueScoreAndSubsidy(coinbaseTx *externalapi.DomainTransaction) (
	blueScore uint64, subsidy uint64, coinbaseData *externalapi.DomainCoinbaseData, err error) {

	payload := coinbaseTx.Payload
	if len(payload) < CoinbasePayloadMinLength {
		return 0, 0, nil, errors.Errorf("coinbase payload is less than the minimum length of %d",
			CoinbasePayloadMinLength)
	}

	blueScore = binary.LittleEndian.Uint64(payload[:uint64Len])
	subsidy = binary.LittleEndian.Uint64(payload[uint64Len:])
	scriptPubKeyVersion := binary.LittleEndian.Uint16(payload[2*uint64Len:])
	scriptPubKeyScriptLength := payload[2*uint64Len+uint16Len]

	if int(scriptPubKeyScriptLength) > len(payload)-CoinbasePayloadMinLength {
		return 0, 0, nil, errors.Errorf("coinbase payload doesn't have enough bytes to "+
			"contain a script public key of %d bytes", scriptPubKeyScriptLength)
	}

	scriptPubKeyScript := payload[CoinbasePayloadMinLength : CoinbasePayloadMinLength+int(scriptPubKeyScriptLength)]

	return blueScore, subsidy, &externalapi.DomainCoinbaseData{
		ScriptPublicKey: &externalapi.ScriptPublicKey{Script: scriptPubKeyScript, Version: scriptPubKeyVersion},
		ExtraData:       payload[CoinbasePayloadMinLength+int(scriptPubKeyScriptLength):],
	}, nil
}

// NewCoinbaseTransaction builds a coinbase transaction paying `subsidy` to the
// script public key in coinbaseData
func NewCoinbaseTransaction(blueScore uint64, subsidy uint64, coinbaseData *externalapi.DomainCoinbaseData) (*externalapi.DomainTransaction, error) {
	payload, err := SerializeCoinbasePayload(blueScore, subsidy, coinbaseData)
	if err != nil {
		return nil, err
	}

	var outputs []*externalapi.DomainTransactionOutput
	if subsidy > 0 {
		outputs = []*externalapi.DomainTransactionOutput{{
			Value:           subsidy,
			ScriptPublicKey: coinbaseData.ScriptPublicKey,
		}}
	}

	return &externalapi.DomainTransaction{
		Version:      constants.MaxTransactionVersion,
		Inputs:       []*externalapi.DomainTransactionInput{},
		Outputs:      outputs,
		LockTime:     0,
		SubnetworkID: subnetworks.SubnetworkIDCoinbase,
		Gas:          0,
		Payload:      payload,
	}, nil
}
