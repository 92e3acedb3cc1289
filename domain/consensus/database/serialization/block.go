package serialization

import (
	"math"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// DbBlock is the stored form of a block
type DbBlock struct {
	Header       *DbBlockHeader   `msgpack:"h"`
	Transactions []*DbTransaction `msgpack:"txs"`
}

// DbTransaction is the stored form of a transaction
type DbTransaction struct {
	Version      uint32                 `msgpack:"v"`
	Inputs       []*DbTransactionInput  `msgpack:"in"`
	Outputs      []*DbTransactionOutput `msgpack:"out"`
	LockTime     uint64                 `msgpack:"lt"`
	SubnetworkID []byte                 `msgpack:"sn"`
	Gas          uint64                 `msgpack:"g"`
	Payload      []byte                 `msgpack:"pl"`
}

// DbTransactionInput is the stored form of a transaction input
type DbTransactionInput struct {
	PreviousOutpoint *DbOutpoint `msgpack:"po"`
	SignatureScript  []byte      `msgpack:"ss"`
	Sequence         uint64      `msgpack:"seq"`
	SigOpCount       uint32      `msgpack:"soc"`
}

// DbTransactionOutput is the stored form of a transaction output
type DbTransactionOutput struct {
	Value           uint64             `msgpack:"v"`
	ScriptPublicKey *DbScriptPublicKey `msgpack:"spk"`
}

// DbScriptPublicKey is the stored form of a script public key
type DbScriptPublicKey struct {
	Script  []byte `msgpack:"s"`
	Version uint32 `msgpack:"v"`
}

// DomainBlockToDbBlock converts DomainBlocks to DbBlock
func DomainBlockToDbBlock(domainBlock *externalapi.DomainBlock) *DbBlock {
	dbTransactions := make([]*DbTransaction, len(domainBlock.Transactions))
	for i, domainTransaction := range domainBlock.Transactions {
		dbTransactions[i] = DomainTransactionToDbTransaction(domainTransaction)
	}

	return &DbBlock{
		Header:       DomainBlockHeaderToDbBlockHeader(domainBlock.Header),
		Transactions: dbTransactions,
	}
}

// DbBlockToDomainBlock converts DbBlock to DomainBlock
func DbBlockToDomainBlock(dbBlock *DbBlock) (*externalapi.DomainBlock, error) {
	domainBlockHeader, err := DbBlockHeaderToDomainBlockHeader(dbBlock.Header)
	if err != nil {
		return nil, err
	}

	domainTransactions := make([]*externalapi.DomainTransaction, len(dbBlock.Transactions))
	for i, dbTransaction := range dbBlock.Transactions {
		var err error
		domainTransactions[i], err = DbTransactionToDomainTransaction(dbTransaction)
		if err != nil {
			return nil, err
		}
	}

	return &externalapi.DomainBlock{
		Header:       domainBlockHeader,
		Transactions: domainTransactions,
	}, nil
}

// DomainTransactionToDbTransaction converts DomainTransaction to DbTransaction
func DomainTransactionToDbTransaction(domainTransaction *externalapi.DomainTransaction) *DbTransaction {
	dbInputs := make([]*DbTransactionInput, len(domainTransaction.Inputs))
	for i, domainTransactionInput := range domainTransaction.Inputs {
		dbInputs[i] = &DbTransactionInput{
			PreviousOutpoint: DomainOutpointToDbOutpoint(&domainTransactionInput.PreviousOutpoint),
			SignatureScript:  domainTransactionInput.SignatureScript,
			Sequence:         domainTransactionInput.Sequence,
			SigOpCount:       uint32(domainTransactionInput.SigOpCount),
		}
	}

	dbOutputs := make([]*DbTransactionOutput, len(domainTransaction.Outputs))
	for i, domainTransactionOutput := range domainTransaction.Outputs {
		dbOutputs[i] = &DbTransactionOutput{
			Value:           domainTransactionOutput.Value,
			ScriptPublicKey: ScriptPublicKeyToDbScriptPublicKey(domainTransactionOutput.ScriptPublicKey),
		}
	}

	return &DbTransaction{
		Version:      uint32(domainTransaction.Version),
		Inputs:       dbInputs,
		Outputs:      dbOutputs,
		LockTime:     domainTransaction.LockTime,
		SubnetworkID: domainTransaction.SubnetworkID[:],
		Gas:          domainTransaction.Gas,
		Payload:      domainTransaction.Payload,
	}
}

// DbTransactionToDomainTransaction converts DbTransaction to DomainTransaction
func DbTransactionToDomainTransaction(dbTransaction *DbTransaction) (*externalapi.DomainTransaction, error) {
	if dbTransaction.Version > math.MaxUint16 {
		return nil, errors.Errorf("invalid transaction version - bigger then uint16")
	}
	if len(dbTransaction.SubnetworkID) != externalapi.DomainSubnetworkIDSize {
		return nil, errors.Errorf("invalid subnetwork ID length %d", len(dbTransaction.SubnetworkID))
	}
	var subnetworkID externalapi.DomainSubnetworkID
	copy(subnetworkID[:], dbTransaction.SubnetworkID)

	domainInputs := make([]*externalapi.DomainTransactionInput, len(dbTransaction.Inputs))
	for i, dbTransactionInput := range dbTransaction.Inputs {
		domainPreviousOutpoint, err := DbOutpointToDomainOutpoint(dbTransactionInput.PreviousOutpoint)
		if err != nil {
			return nil, err
		}
		if dbTransactionInput.SigOpCount > math.MaxUint8 {
			return nil, errors.Errorf("invalid sig op count %d", dbTransactionInput.SigOpCount)
		}
		domainInputs[i] = &externalapi.DomainTransactionInput{
			PreviousOutpoint: *domainPreviousOutpoint,
			SignatureScript:  dbTransactionInput.SignatureScript,
			Sequence:         dbTransactionInput.Sequence,
			SigOpCount:       byte(dbTransactionInput.SigOpCount),
		}
	}

	domainOutputs := make([]*externalapi.DomainTransactionOutput, len(dbTransaction.Outputs))
	for i, dbTransactionOutput := range dbTransaction.Outputs {
		scriptPublicKey, err := DbScriptPublicKeyToScriptPublicKey(dbTransactionOutput.ScriptPublicKey)
		if err != nil {
			return nil, err
		}
		domainOutputs[i] = &externalapi.DomainTransactionOutput{
			Value:           dbTransactionOutput.Value,
			ScriptPublicKey: scriptPublicKey,
		}
	}

	return &externalapi.DomainTransaction{
		Version:      uint16(dbTransaction.Version),
		Inputs:       domainInputs,
		Outputs:      domainOutputs,
		LockTime:     dbTransaction.LockTime,
		SubnetworkID: subnetworkID,
		Gas:          dbTransaction.Gas,
		Payload:      dbTransaction.Payload,
	}, nil
}

// ScriptPublicKeyToDbScriptPublicKey converts ScriptPublicKey to DbScriptPublicKey
func ScriptPublicKeyToDbScriptPublicKey(scriptPublicKey *externalapi.ScriptPublicKey) *DbScriptPublicKey {
	return &DbScriptPublicKey{Script: scriptPublicKey.Script, Version: uint32(scriptPublicKey.Version)}
}

// DbScriptPublicKeyToScriptPublicKey converts DbScriptPublicKey to ScriptPublicKey
func DbScriptPublicKeyToScriptPublicKey(dbScriptPublicKey *DbScriptPublicKey) (*externalapi.ScriptPublicKey, error) {
	if dbScriptPublicKey == nil {
		return nil, errors.New("missing script public key")
	}
	if dbScriptPublicKey.Version > math.MaxUint16 {
		return nil, errors.Errorf("invalid script public key version - bigger then uint16")
	}
	script := dbScriptPublicKey.Script
	if script == nil {
		script = []byte{}
	}
	return &externalapi.ScriptPublicKey{Script: script, Version: uint16(dbScriptPublicKey.Version)}, nil
}
