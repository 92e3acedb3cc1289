package appmessage

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// MsgRequestBlockLocator implements the Message interface and represents a
// RequestBlockLocator message. It is used to request a block locator between
// the pruning point and HighHash, used to resolve orphans.
type MsgRequestBlockLocator struct {
	baseMessage
	HighHash *externalapi.DomainHash
	Limit    uint32
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgRequestBlockLocator) Command() MessageCommand {
	return CmdRequestBlockLocator
}

// NewMsgRequestBlockLocator returns a new RequestBlockLocator message.
func NewMsgRequestBlockLocator(highHash *externalapi.DomainHash, limit uint32) *MsgRequestBlockLocator {
	return &MsgRequestBlockLocator{
		HighHash: highHash,
		Limit:    limit,
	}
}

// MsgBlockLocator implements the Message interface and represents a
// BlockLocator message. It is used to find the blue score of a known block
// that is in the past of the requested block.
type MsgBlockLocator struct {
	baseMessage
	BlockLocatorHashes []*externalapi.DomainHash
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgBlockLocator) Command() MessageCommand {
	return CmdBlockLocator
}

// NewMsgBlockLocator returns a new BlockLocator message.
func NewMsgBlockLocator(locatorHashes []*externalapi.DomainHash) *MsgBlockLocator {
	return &MsgBlockLocator{
		BlockLocatorHashes: locatorHashes,
	}
}

// MsgRequestIBDChainBlockLocator implements the Message interface and
// represents a request for a selected chain block locator between LowHash and
// HighHash. Nil hashes request the full locator of the peer's headers chain.
type MsgRequestIBDChainBlockLocator struct {
	baseMessage
	LowHash  *externalapi.DomainHash
	HighHash *externalapi.DomainHash
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgRequestIBDChainBlockLocator) Command() MessageCommand {
	return CmdRequestIBDChainBlockLocator
}

// NewMsgRequestIBDChainBlockLocator returns a new RequestIBDChainBlockLocator message.
func NewMsgRequestIBDChainBlockLocator(lowHash, highHash *externalapi.DomainHash) *MsgRequestIBDChainBlockLocator {
	return &MsgRequestIBDChainBlockLocator{
		LowHash:  lowHash,
		HighHash: highHash,
	}
}

// MsgIBDChainBlockLocator implements the Message interface and represents a
// selected chain block locator, ordered from the highest block down.
type MsgIBDChainBlockLocator struct {
	baseMessage
	BlockLocatorHashes []*externalapi.DomainHash
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgIBDChainBlockLocator) Command() MessageCommand {
	return CmdIBDChainBlockLocator
}

// NewMsgIBDChainBlockLocator returns a new IBDChainBlockLocator message.
func NewMsgIBDChainBlockLocator(locatorHashes []*externalapi.DomainHash) *MsgIBDChainBlockLocator {
	return &MsgIBDChainBlockLocator{
		BlockLocatorHashes: locatorHashes,
	}
}
