package notifications

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// EventType identifies a kind of notification a listener may subscribe to
type EventType int

// Every notification kind a Manager fans out
const (
	EventBlockAdded EventType = iota
	EventVirtualChainChanged
	EventPruningPointMoved
	EventFinalityConflict
	EventFinalityConflictResolved
	EventUTXOSetOverride
	EventSyncStalled
	EventPeerBanned

	numEventTypes
)

var eventTypeNames = [numEventTypes]string{
	EventBlockAdded:               "BlockAdded",
	EventVirtualChainChanged:      "VirtualChainChanged",
	EventPruningPointMoved:        "PruningPointMoved",
	EventFinalityConflict:         "FinalityConflict",
	EventFinalityConflictResolved: "FinalityConflictResolved",
	EventUTXOSetOverride:          "UTXOSetOverride",
	EventSyncStalled:              "SyncStalled",
	EventPeerBanned:               "PeerBanned",
}

func (eventType EventType) String() string {
	if eventType < 0 || eventType >= numEventTypes {
		return "unknown event type"
	}
	return eventTypeNames[eventType]
}

// Event is a notification payload: either one of the consensus events
// or one of the node events defined in this package
type Event interface{}

// SyncStalled is emitted when no connected peer could complete a sync job
type SyncStalled struct {
	TargetHash *externalapi.DomainHash
	Reason     string
}

// PeerBanned is emitted when a peer is banned for a protocol violation
type PeerBanned struct {
	Address string
	Reason  string
}

// TypeOf returns the EventType of the given event
func TypeOf(event Event) (EventType, error) {
	switch event.(type) {
	case *externalapi.BlockAdded:
		return EventBlockAdded, nil
	case *externalapi.VirtualChainChanged:
		return EventVirtualChainChanged, nil
	case *externalapi.PruningPointMoved:
		return EventPruningPointMoved, nil
	case *externalapi.FinalityConflict:
		return EventFinalityConflict, nil
	case *externalapi.FinalityConflictResolved:
		return EventFinalityConflictResolved, nil
	case *externalapi.UTXOSetOverride:
		return EventUTXOSetOverride, nil
	case *SyncStalled:
		return EventSyncStalled, nil
	case *PeerBanned:
		return EventPeerBanned, nil
	default:
		return 0, errors.Errorf("unknown event %T", event)
	}
}
