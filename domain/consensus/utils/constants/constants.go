package constants

import "math"

const (
	// BlockVersion represents the current block version
	BlockVersion uint16 = 1

	// MaxTransactionVersion is the current latest supported transaction version.
	MaxTransactionVersion uint16 = 0

	// MaxScriptPublicKeyVersion is the current latest supported public key script version.
	MaxScriptPublicKeyVersion uint16 = 0

	// SpotsPerCalico is the number of spots in one calico (1 CAL).
	SpotsPerCalico = 100_000_000

	// MaxSpots is the maximum transaction amount allowed in spots.
	MaxSpots = uint64(29_000_000_000 * SpotsPerCalico)

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint64 = math.MaxUint64

	// UnacceptedDAAScore is used to for UTXOEntries that were created by
	// transactions in the mempool, or otherwise not-yet-accepted transactions.
	UnacceptedDAAScore = math.MaxUint64
)
