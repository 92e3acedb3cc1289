package appmessage

import "strings"

// RejectReasonRouteFull prefixes the reason of a reject sent in place of a
// message that was dropped because its route reached capacity.
const RejectReasonRouteFull = "route is full"

// MsgReject implements the Message interface and represents a Reject message.
// It is used to notify peers why they are banned, or that one of their
// messages was dropped.
type MsgReject struct {
	baseMessage
	Reason string
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgReject) Command() MessageCommand {
	return CmdReject
}

// NewMsgReject returns a new Reject message that conforms to the
// Message interface.
func NewMsgReject(reason string) *MsgReject {
	return &MsgReject{
		Reason: reason,
	}
}

// IsRouteFull returns whether the reject reports a dropped message rather
// than a ban.
func (msg *MsgReject) IsRouteFull() bool {
	return strings.HasPrefix(msg.Reason, RejectReasonRouteFull)
}
