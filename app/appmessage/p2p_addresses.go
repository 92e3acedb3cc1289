package appmessage

import (
	"time"

	"github.com/calico-network/calicod/util/mstime"
)

// NetAddress defines information about a peer on the network including the time
// it was last seen and the in-process address it listens on.
type NetAddress struct {
	// Last time the address was seen.
	Timestamp time.Time

	// Address the peer listens on.
	Address string
}

// NewNetAddress returns a new NetAddress for the given address, seen now.
func NewNetAddress(address string) *NetAddress {
	return &NetAddress{
		Timestamp: mstime.Now(),
		Address:   address,
	}
}

func (na NetAddress) String() string {
	return na.Address
}

// MsgRequestAddresses implements the Message interface and represents a
// RequestAddresses message. It is used to request a list of known active
// peers on the network from a peer. The list is returned via MsgAddresses.
//
// This message has no payload.
type MsgRequestAddresses struct {
	baseMessage
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgRequestAddresses) Command() MessageCommand {
	return CmdRequestAddresses
}

// NewMsgRequestAddresses returns a new RequestAddresses message that conforms
// to the Message interface.
func NewMsgRequestAddresses() *MsgRequestAddresses {
	return &MsgRequestAddresses{}
}

// MsgAddresses implements the Message interface and represents an Addresses
// message. It carries at most MaxAddressesPerMsg known peer addresses.
type MsgAddresses struct {
	baseMessage
	AddressList []*NetAddress
}

// Command returns the protocol command string for the message. This is part
// of the Message interface implementation.
func (msg *MsgAddresses) Command() MessageCommand {
	return CmdAddresses
}

// NewMsgAddresses returns a new Addresses message that conforms to the
// Message interface.
func NewMsgAddresses(addressList []*NetAddress) *MsgAddresses {
	return &MsgAddresses{
		AddressList: addressList,
	}
}
