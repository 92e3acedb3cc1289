package appmessage

import (
	"time"

	"github.com/calico-network/calicod/infrastructure/network/netadapter/id"
	"github.com/calico-network/calicod/util/mstime"
)

// MsgVersion implements the Message interface and represents a Version
// message. It is used for a peer to advertise itself as soon as an outbound
// connection is made. The remote peer then uses this information along with
// its own to negotiate. The remote peer must then respond with a version
// message of its own containing the negotiated values followed by a verack
// message (MsgVerAck).
type MsgVersion struct {
	baseMessage

	// Version of the protocol the node is using.
	ProtocolVersion uint32

	// The network the node is running on.
	Network string

	// Time the message was generated.
	Timestamp time.Time

	// ID of the message sender.
	ID *id.ID

	// The user agent that generated the message.
	UserAgent string
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgVersion) Command() MessageCommand {
	return CmdVersion
}

// NewMsgVersion returns a new Version message that conforms to the Message
// interface.
func NewMsgVersion(network string, id *id.ID, userAgent string) *MsgVersion {
	return &MsgVersion{
		ProtocolVersion: ProtocolVersion,
		Network:         network,
		Timestamp:       mstime.Now(),
		ID:              id,
		UserAgent:       userAgent,
	}
}

// MsgVerAck defines a verack message which is used for a peer to
// acknowledge a version message (MsgVersion) after it has used the version
// to negotiate parameters.
//
// This message has no payload.
type MsgVerAck struct {
	baseMessage
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgVerAck) Command() MessageCommand {
	return CmdVerAck
}

// NewMsgVerAck returns a new verack message that conforms to the
// Message interface.
func NewMsgVerAck() *MsgVerAck {
	return &MsgVerAck{}
}
