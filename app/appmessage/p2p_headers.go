package appmessage

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// MsgRequestHeaders implements the Message interface and represents a
// RequestHeaders message. It is used to request headers of the blocks
// between LowHash and HighHash, in batches.
type MsgRequestHeaders struct {
	baseMessage
	LowHash  *externalapi.DomainHash
	HighHash *externalapi.DomainHash
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgRequestHeaders) Command() MessageCommand {
	return CmdRequestHeaders
}

// NewMsgRequestHeaders returns a new RequestHeaders message that conforms to the
// Message interface using the passed parameters and defaults for the remaining
// fields.
func NewMsgRequestHeaders(lowHash, highHash *externalapi.DomainHash) *MsgRequestHeaders {
	return &MsgRequestHeaders{
		LowHash:  lowHash,
		HighHash: highHash,
	}
}

// MsgRequestNextHeaders implements the Message interface and represents a
// RequestNextHeaders message. It is used to request the next batch of headers.
//
// This message has no payload.
type MsgRequestNextHeaders struct {
	baseMessage
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgRequestNextHeaders) Command() MessageCommand {
	return CmdRequestNextHeaders
}

// NewMsgRequestNextHeaders returns a new RequestNextHeaders message.
func NewMsgRequestNextHeaders() *MsgRequestNextHeaders {
	return &MsgRequestNextHeaders{}
}

// MsgBlockHeaders represents a batch of block headers
type MsgBlockHeaders struct {
	baseMessage
	BlockHeaders []externalapi.BlockHeader
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgBlockHeaders) Command() MessageCommand {
	return CmdBlockHeaders
}

// NewBlockHeadersMessage creates a new MsgBlockHeaders
func NewBlockHeadersMessage(blockHeaders []externalapi.BlockHeader) *MsgBlockHeaders {
	return &MsgBlockHeaders{
		BlockHeaders: blockHeaders,
	}
}

// MsgDoneHeaders implements the Message interface and represents a
// DoneHeaders message. It is used to notify the IBD syncing peer that the
// syncer sent all the requested headers.
//
// This message has no payload.
type MsgDoneHeaders struct {
	baseMessage
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgDoneHeaders) Command() MessageCommand {
	return CmdDoneHeaders
}

// NewMsgDoneHeaders returns a new DoneHeaders message.
func NewMsgDoneHeaders() *MsgDoneHeaders {
	return &MsgDoneHeaders{}
}
