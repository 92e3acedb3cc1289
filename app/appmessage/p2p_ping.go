package appmessage

// MsgPing implements the Message interface and represents a Ping message.
//
// The peer is expected to answer with a MsgPong echoing the nonce.
type MsgPing struct {
	baseMessage

	// Unique value associated with message that is used to identify
	// specific ping message.
	Nonce uint64
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgPing) Command() MessageCommand {
	return CmdPing
}

// NewMsgPing returns a new Ping message that conforms to the Message
// interface.
func NewMsgPing(nonce uint64) *MsgPing {
	return &MsgPing{
		Nonce: nonce,
	}
}

// MsgPong implements the Message interface and represents a Pong message
// which is used primarily to confirm that a connection is still valid in
// response to a Ping message (MsgPing).
type MsgPong struct {
	baseMessage

	// Unique value associated with message that is used to identify
	// specific ping message.
	Nonce uint64
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgPong) Command() MessageCommand {
	return CmdPong
}

// NewMsgPong returns a new Pong message that conforms to the Message
// interface.
func NewMsgPong(nonce uint64) *MsgPong {
	return &MsgPong{
		Nonce: nonce,
	}
}
