package appmessage

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// MsgRequestPruningPointProof represents a request for the pruning point proof.
type MsgRequestPruningPointProof struct {
	baseMessage
}

// Command returns the protocol command string for the message
func (msg *MsgRequestPruningPointProof) Command() MessageCommand {
	return CmdRequestPruningPointProof
}

// NewMsgRequestPruningPointProof returns a new MsgRequestPruningPointProof.
func NewMsgRequestPruningPointProof() *MsgRequestPruningPointProof {
	return &MsgRequestPruningPointProof{}
}

// MsgPruningPointProof represents a pruning point proof
type MsgPruningPointProof struct {
	baseMessage
	Headers [][]externalapi.BlockHeader
}

// Command returns the protocol command string for the message
func (msg *MsgPruningPointProof) Command() MessageCommand {
	return CmdPruningPointProof
}

// Proof returns the domain pruning point proof carried by the message
func (msg *MsgPruningPointProof) Proof() *externalapi.PruningPointProof {
	return &externalapi.PruningPointProof{Headers: msg.Headers}
}

// NewMsgPruningPointProof returns a new MsgPruningPointProof.
func NewMsgPruningPointProof(proof *externalapi.PruningPointProof) *MsgPruningPointProof {
	return &MsgPruningPointProof{
		Headers: proof.Headers,
	}
}

// MsgRequestPruningPointAndItsAnticone represents a request for the pruning
// point history and the pruning point with its anticone, with trusted data.
type MsgRequestPruningPointAndItsAnticone struct {
	baseMessage
}

// Command returns the protocol command string for the message
func (msg *MsgRequestPruningPointAndItsAnticone) Command() MessageCommand {
	return CmdRequestPruningPointAndItsAnticone
}

// NewMsgRequestPruningPointAndItsAnticone returns a new MsgRequestPruningPointAndItsAnticone.
func NewMsgRequestPruningPointAndItsAnticone() *MsgRequestPruningPointAndItsAnticone {
	return &MsgRequestPruningPointAndItsAnticone{}
}

// MsgPruningPoints represents the headers of every pruning point the sender
// ever had, from genesis up to its current one
type MsgPruningPoints struct {
	baseMessage
	Headers []externalapi.BlockHeader
}

// Command returns the protocol command string for the message
func (msg *MsgPruningPoints) Command() MessageCommand {
	return CmdPruningPoints
}

// NewMsgPruningPoints returns a new MsgPruningPoints.
func NewMsgPruningPoints(headers []externalapi.BlockHeader) *MsgPruningPoints {
	return &MsgPruningPoints{
		Headers: headers,
	}
}

// MsgBlockWithTrustedData represents a block accompanied by the GHOSTDAG
// data its receiver cannot compute without the block's past
type MsgBlockWithTrustedData struct {
	baseMessage
	BlockWithTrustedData *externalapi.BlockWithTrustedData
}

// Command returns the protocol command string for the message
func (msg *MsgBlockWithTrustedData) Command() MessageCommand {
	return CmdBlockWithTrustedData
}

// NewMsgBlockWithTrustedData returns a new MsgBlockWithTrustedData.
func NewMsgBlockWithTrustedData(blockWithTrustedData *externalapi.BlockWithTrustedData) *MsgBlockWithTrustedData {
	return &MsgBlockWithTrustedData{
		BlockWithTrustedData: blockWithTrustedData,
	}
}

// MsgDoneBlocksWithTrustedData signals the end of the blocks with trusted data
type MsgDoneBlocksWithTrustedData struct {
	baseMessage
}

// Command returns the protocol command string for the message
func (msg *MsgDoneBlocksWithTrustedData) Command() MessageCommand {
	return CmdDoneBlocksWithTrustedData
}

// NewMsgDoneBlocksWithTrustedData returns a new MsgDoneBlocksWithTrustedData.
func NewMsgDoneBlocksWithTrustedData() *MsgDoneBlocksWithTrustedData {
	return &MsgDoneBlocksWithTrustedData{}
}

// MsgRequestPruningPointUTXOSet represents a request for the UTXO set of
// the given pruning point
type MsgRequestPruningPointUTXOSet struct {
	baseMessage
	PruningPointHash *externalapi.DomainHash
}

// Command returns the protocol command string for the message
func (msg *MsgRequestPruningPointUTXOSet) Command() MessageCommand {
	return CmdRequestPruningPointUTXOSet
}

// NewMsgRequestPruningPointUTXOSet returns a new MsgRequestPruningPointUTXOSet.
func NewMsgRequestPruningPointUTXOSet(pruningPointHash *externalapi.DomainHash) *MsgRequestPruningPointUTXOSet {
	return &MsgRequestPruningPointUTXOSet{
		PruningPointHash: pruningPointHash,
	}
}

// MsgPruningPointUTXOSetChunk represents a chunk of the pruning point UTXO set
type MsgPruningPointUTXOSetChunk struct {
	baseMessage
	OutpointAndUTXOEntryPairs []*externalapi.OutpointAndUTXOEntryPair
}

// Command returns the protocol command string for the message
func (msg *MsgPruningPointUTXOSetChunk) Command() MessageCommand {
	return CmdPruningPointUTXOSetChunk
}

// NewMsgPruningPointUTXOSetChunk returns a new MsgPruningPointUTXOSetChunk.
func NewMsgPruningPointUTXOSetChunk(pairs []*externalapi.OutpointAndUTXOEntryPair) *MsgPruningPointUTXOSetChunk {
	return &MsgPruningPointUTXOSetChunk{
		OutpointAndUTXOEntryPairs: pairs,
	}
}

// MsgRequestNextPruningPointUTXOSetChunk represents a request for the next
// batch of pruning point UTXO set chunks
type MsgRequestNextPruningPointUTXOSetChunk struct {
	baseMessage
}

// Command returns the protocol command string for the message
func (msg *MsgRequestNextPruningPointUTXOSetChunk) Command() MessageCommand {
	return CmdRequestNextPruningPointUTXOSetChunk
}

// NewMsgRequestNextPruningPointUTXOSetChunk returns a new MsgRequestNextPruningPointUTXOSetChunk.
func NewMsgRequestNextPruningPointUTXOSetChunk() *MsgRequestNextPruningPointUTXOSetChunk {
	return &MsgRequestNextPruningPointUTXOSetChunk{}
}

// MsgDonePruningPointUTXOSetChunks signals the end of the pruning point UTXO set
type MsgDonePruningPointUTXOSetChunks struct {
	baseMessage
}

// Command returns the protocol command string for the message
func (msg *MsgDonePruningPointUTXOSetChunks) Command() MessageCommand {
	return CmdDonePruningPointUTXOSetChunks
}

// NewMsgDonePruningPointUTXOSetChunks returns a new MsgDonePruningPointUTXOSetChunks.
func NewMsgDonePruningPointUTXOSetChunks() *MsgDonePruningPointUTXOSetChunks {
	return &MsgDonePruningPointUTXOSetChunks{}
}

// MsgUnexpectedPruningPoint tells the requester that the requested pruning
// point is no longer the sender's pruning point
type MsgUnexpectedPruningPoint struct {
	baseMessage
}

// Command returns the protocol command string for the message
func (msg *MsgUnexpectedPruningPoint) Command() MessageCommand {
	return CmdUnexpectedPruningPoint
}

// NewMsgUnexpectedPruningPoint returns a new MsgUnexpectedPruningPoint.
func NewMsgUnexpectedPruningPoint() *MsgUnexpectedPruningPoint {
	return &MsgUnexpectedPruningPoint{}
}
