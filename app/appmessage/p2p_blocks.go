package appmessage

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// MsgBlock implements the Message interface and represents a relayed block.
// It is correlated with its request by the block hash.
type MsgBlock struct {
	baseMessage
	Block *externalapi.DomainBlock
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgBlock) Command() MessageCommand {
	return CmdBlock
}

// NewMsgBlock returns a new Block message.
func NewMsgBlock(block *externalapi.DomainBlock) *MsgBlock {
	return &MsgBlock{
		Block: block,
	}
}

// MsgIBDBlock implements the Message interface and represents a block sent
// during IBD.
type MsgIBDBlock struct {
	baseMessage
	Block *externalapi.DomainBlock
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgIBDBlock) Command() MessageCommand {
	return CmdIBDBlock
}

// NewMsgIBDBlock returns a new IBDBlock message.
func NewMsgIBDBlock(block *externalapi.DomainBlock) *MsgIBDBlock {
	return &MsgIBDBlock{
		Block: block,
	}
}

// MsgRequestIBDBlocks implements the Message interface and represents a
// request for the bodies of the given blocks, answered in order.
type MsgRequestIBDBlocks struct {
	baseMessage
	Hashes []*externalapi.DomainHash
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgRequestIBDBlocks) Command() MessageCommand {
	return CmdRequestIBDBlocks
}

// NewMsgRequestIBDBlocks returns a new RequestIBDBlocks message.
func NewMsgRequestIBDBlocks(hashes []*externalapi.DomainHash) *MsgRequestIBDBlocks {
	return &MsgRequestIBDBlocks{
		Hashes: hashes,
	}
}

// MsgInvRelayBlock implements the Message interface and represents an
// announcement of a new block.
type MsgInvRelayBlock struct {
	baseMessage
	Hash *externalapi.DomainHash
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgInvRelayBlock) Command() MessageCommand {
	return CmdInvRelayBlock
}

// NewMsgInvBlock returns a new InvRelayBlock message.
func NewMsgInvBlock(hash *externalapi.DomainHash) *MsgInvRelayBlock {
	return &MsgInvRelayBlock{
		Hash: hash,
	}
}

// MsgRequestRelayBlocks implements the Message interface and represents a
// request for announced blocks.
type MsgRequestRelayBlocks struct {
	baseMessage
	Hashes []*externalapi.DomainHash
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgRequestRelayBlocks) Command() MessageCommand {
	return CmdRequestRelayBlocks
}

// NewMsgRequestRelayBlocks returns a new RequestRelayBlocks message.
func NewMsgRequestRelayBlocks(hashes []*externalapi.DomainHash) *MsgRequestRelayBlocks {
	return &MsgRequestRelayBlocks{
		Hashes: hashes,
	}
}

// MsgInvTransaction implements the Message interface and represents an
// announcement of new transactions.
type MsgInvTransaction struct {
	baseMessage
	TxIDs []*externalapi.DomainTransactionID
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgInvTransaction) Command() MessageCommand {
	return CmdInvTransaction
}

// NewMsgInvTransaction returns a new InvTransaction message.
func NewMsgInvTransaction(ids []*externalapi.DomainTransactionID) *MsgInvTransaction {
	return &MsgInvTransaction{
		TxIDs: ids,
	}
}

// MsgRequestAnticone implements the Message interface and represents a
// request for the anticone of BlockHash within the past of ContextHash.
type MsgRequestAnticone struct {
	baseMessage
	BlockHash   *externalapi.DomainHash
	ContextHash *externalapi.DomainHash
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgRequestAnticone) Command() MessageCommand {
	return CmdRequestAnticone
}

// NewMsgRequestAnticone returns a new RequestAnticone message.
func NewMsgRequestAnticone(blockHash, contextHash *externalapi.DomainHash) *MsgRequestAnticone {
	return &MsgRequestAnticone{
		BlockHash:   blockHash,
		ContextHash: contextHash,
	}
}
