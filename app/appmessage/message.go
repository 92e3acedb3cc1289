package appmessage

import (
	"fmt"
	"time"
)

// MessageCommand is a number in the header of a message that represents its type.
type MessageCommand uint32

// Commands of the peer protocol. The set is closed: every command has an
// entry in messageCommandTable.
const (
	CmdVersion MessageCommand = iota
	CmdVerAck
	CmdRequestAddresses
	CmdAddresses
	CmdPing
	CmdPong
	CmdReject
	CmdRequestHeaders
	CmdRequestNextHeaders
	CmdBlockHeaders
	CmdDoneHeaders
	CmdRequestBlockLocator
	CmdBlockLocator
	CmdRequestIBDChainBlockLocator
	CmdIBDChainBlockLocator
	CmdRequestIBDBlocks
	CmdIBDBlock
	CmdInvRelayBlock
	CmdRequestRelayBlocks
	CmdBlock
	CmdRequestPruningPointProof
	CmdPruningPointProof
	CmdRequestPruningPointAndItsAnticone
	CmdPruningPoints
	CmdBlockWithTrustedData
	CmdDoneBlocksWithTrustedData
	CmdRequestPruningPointUTXOSet
	CmdPruningPointUTXOSetChunk
	CmdRequestNextPruningPointUTXOSetChunk
	CmdDonePruningPointUTXOSetChunks
	CmdUnexpectedPruningPoint
	CmdRequestAnticone
	CmdInvTransaction

	numMessageCommands
)

type messageCommandInfo struct {
	name       string
	newMessage func() Message

	// correlationKeys returns the keys a message is matched by. A response
	// correlates with a request when its single key is one of the request's keys.
	correlationKeys func(Message) []string
}

var messageCommandTable = [numMessageCommands]messageCommandInfo{
	CmdVersion:          {name: "Version", newMessage: func() Message { return &MsgVersion{} }},
	CmdVerAck:           {name: "VerAck", newMessage: func() Message { return &MsgVerAck{} }},
	CmdRequestAddresses: {name: "RequestAddresses", newMessage: func() Message { return &MsgRequestAddresses{} }},
	CmdAddresses:        {name: "Addresses", newMessage: func() Message { return &MsgAddresses{} }},
	CmdPing: {name: "Ping", newMessage: func() Message { return &MsgPing{} },
		correlationKeys: func(msg Message) []string { return []string{nonceKey(msg.(*MsgPing).Nonce)} }},
	CmdPong: {name: "Pong", newMessage: func() Message { return &MsgPong{} },
		correlationKeys: func(msg Message) []string { return []string{nonceKey(msg.(*MsgPong).Nonce)} }},
	CmdReject:                      {name: "Reject", newMessage: func() Message { return &MsgReject{} }},
	CmdRequestHeaders:              {name: "RequestHeaders", newMessage: func() Message { return &MsgRequestHeaders{} }},
	CmdRequestNextHeaders:          {name: "RequestNextHeaders", newMessage: func() Message { return &MsgRequestNextHeaders{} }},
	CmdBlockHeaders:                {name: "BlockHeaders", newMessage: func() Message { return &MsgBlockHeaders{} }},
	CmdDoneHeaders:                 {name: "DoneHeaders", newMessage: func() Message { return &MsgDoneHeaders{} }},
	CmdRequestBlockLocator:         {name: "RequestBlockLocator", newMessage: func() Message { return &MsgRequestBlockLocator{} }},
	CmdBlockLocator:                {name: "BlockLocator", newMessage: func() Message { return &MsgBlockLocator{} }},
	CmdRequestIBDChainBlockLocator: {name: "RequestIBDChainBlockLocator", newMessage: func() Message { return &MsgRequestIBDChainBlockLocator{} }},
	CmdIBDChainBlockLocator:        {name: "IBDChainBlockLocator", newMessage: func() Message { return &MsgIBDChainBlockLocator{} }},
	CmdRequestIBDBlocks: {name: "RequestIBDBlocks", newMessage: func() Message { return &MsgRequestIBDBlocks{} },
		correlationKeys: func(msg Message) []string { return hashKeys(msg.(*MsgRequestIBDBlocks).Hashes) }},
	CmdIBDBlock: {name: "IBDBlock", newMessage: func() Message { return &MsgIBDBlock{} },
		correlationKeys: func(msg Message) []string { return []string{blockKey(msg.(*MsgIBDBlock).Block)} }},
	CmdInvRelayBlock: {name: "InvRelayBlock", newMessage: func() Message { return &MsgInvRelayBlock{} }},
	CmdRequestRelayBlocks: {name: "RequestRelayBlocks", newMessage: func() Message { return &MsgRequestRelayBlocks{} },
		correlationKeys: func(msg Message) []string { return hashKeys(msg.(*MsgRequestRelayBlocks).Hashes) }},
	CmdBlock: {name: "Block", newMessage: func() Message { return &MsgBlock{} },
		correlationKeys: func(msg Message) []string { return []string{blockKey(msg.(*MsgBlock).Block)} }},
	CmdRequestPruningPointProof:            {name: "RequestPruningPointProof", newMessage: func() Message { return &MsgRequestPruningPointProof{} }},
	CmdPruningPointProof:                   {name: "PruningPointProof", newMessage: func() Message { return &MsgPruningPointProof{} }},
	CmdRequestPruningPointAndItsAnticone:   {name: "RequestPruningPointAndItsAnticone", newMessage: func() Message { return &MsgRequestPruningPointAndItsAnticone{} }},
	CmdPruningPoints:                       {name: "PruningPoints", newMessage: func() Message { return &MsgPruningPoints{} }},
	CmdBlockWithTrustedData:                {name: "BlockWithTrustedData", newMessage: func() Message { return &MsgBlockWithTrustedData{} }},
	CmdDoneBlocksWithTrustedData:           {name: "DoneBlocksWithTrustedData", newMessage: func() Message { return &MsgDoneBlocksWithTrustedData{} }},
	CmdRequestPruningPointUTXOSet:          {name: "RequestPruningPointUTXOSet", newMessage: func() Message { return &MsgRequestPruningPointUTXOSet{} }},
	CmdPruningPointUTXOSetChunk:            {name: "PruningPointUTXOSetChunk", newMessage: func() Message { return &MsgPruningPointUTXOSetChunk{} }},
	CmdRequestNextPruningPointUTXOSetChunk: {name: "RequestNextPruningPointUTXOSetChunk", newMessage: func() Message { return &MsgRequestNextPruningPointUTXOSetChunk{} }},
	CmdDonePruningPointUTXOSetChunks:       {name: "DonePruningPointUTXOSetChunks", newMessage: func() Message { return &MsgDonePruningPointUTXOSetChunks{} }},
	CmdUnexpectedPruningPoint:              {name: "UnexpectedPruningPoint", newMessage: func() Message { return &MsgUnexpectedPruningPoint{} }},
	CmdRequestAnticone:                     {name: "RequestAnticone", newMessage: func() Message { return &MsgRequestAnticone{} }},
	CmdInvTransaction:                      {name: "InvTransaction", newMessage: func() Message { return &MsgInvTransaction{} }},
}

func (cmd MessageCommand) String() string {
	cmdString := "unknown command"
	if cmd < numMessageCommands {
		cmdString = messageCommandTable[cmd].name
	}
	return fmt.Sprintf("%s [code %d]", cmdString, uint32(cmd))
}

// IsValid returns whether cmd is one of the protocol's commands
func (cmd MessageCommand) IsValid() bool {
	return cmd < numMessageCommands
}

// AllMessageCommands returns every command of the protocol, in order
func AllMessageCommands() []MessageCommand {
	commands := make([]MessageCommand, numMessageCommands)
	for i := range commands {
		commands[i] = MessageCommand(i)
	}
	return commands
}

// NewMessage returns an empty message of the given command
func NewMessage(cmd MessageCommand) (Message, bool) {
	if !cmd.IsValid() {
		return nil, false
	}
	return messageCommandTable[cmd].newMessage(), true
}

// Correlates returns whether response answers request. Messages without
// correlation keys never correlate.
func Correlates(request Message, response Message) bool {
	requestKeys := correlationKeys(request)
	responseKeys := correlationKeys(response)
	if len(requestKeys) == 0 || len(responseKeys) != 1 {
		return false
	}
	for _, key := range requestKeys {
		if key == responseKeys[0] {
			return true
		}
	}
	return false
}

func correlationKeys(message Message) []string {
	cmd := message.Command()
	if !cmd.IsValid() || messageCommandTable[cmd].correlationKeys == nil {
		return nil
	}
	return messageCommandTable[cmd].correlationKeys(message)
}

// Message is an interface that describes a peer message. A type that
// implements Message has complete control over the representation of its data
// and may therefore contain additional or fewer fields than those which
// are used directly in the protocol encoded message.
type Message interface {
	Command() MessageCommand
	MessageNumber() uint64
	SetMessageNumber(index uint64)
	ReceivedAt() time.Time
	SetReceivedAt(receivedAt time.Time)
}

type baseMessage struct {
	messageNumber uint64
	receivedAt    time.Time
}

func (b *baseMessage) MessageNumber() uint64 {
	return b.messageNumber
}

func (b *baseMessage) SetMessageNumber(messageNumber uint64) {
	b.messageNumber = messageNumber
}

func (b *baseMessage) ReceivedAt() time.Time {
	return b.receivedAt
}

func (b *baseMessage) SetReceivedAt(receivedAt time.Time) {
	b.receivedAt = receivedAt
}
