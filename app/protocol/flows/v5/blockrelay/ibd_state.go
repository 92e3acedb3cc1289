package blockrelay

import (
	"github.com/pkg/errors"
)

type ibdState int

const (
	ibdStateIdle ibdState = iota
	ibdStateNegotiateLocator
	ibdStateHeaderSync
	ibdStatePruningProofExchange
	ibdStateBlockDownload
	ibdStateSynced
)

var ibdStateNames = map[ibdState]string{
	ibdStateIdle:                 "Idle",
	ibdStateNegotiateLocator:     "NegotiateLocator",
	ibdStateHeaderSync:           "HeaderSync",
	ibdStatePruningProofExchange: "PruningProofExchange",
	ibdStateBlockDownload:        "BlockDownload",
	ibdStateSynced:               "Synced",
}

func (state ibdState) String() string {
	name, ok := ibdStateNames[state]
	if !ok {
		return "Unknown"
	}
	return name
}

// ibdTransitions lists, for every state, the states it may move to. Any
// state may fall back to Idle when a sync attempt fails.
var ibdTransitions = map[ibdState][]ibdState{
	ibdStateIdle:                 {ibdStateNegotiateLocator},
	ibdStateNegotiateLocator:     {ibdStateHeaderSync, ibdStatePruningProofExchange, ibdStateSynced, ibdStateIdle},
	ibdStateHeaderSync:           {ibdStateBlockDownload, ibdStatePruningProofExchange, ibdStateIdle},
	ibdStatePruningProofExchange: {ibdStateHeaderSync, ibdStateBlockDownload, ibdStateIdle},
	ibdStateBlockDownload:        {ibdStateSynced, ibdStateIdle},
	ibdStateSynced:               {ibdStateNegotiateLocator, ibdStateIdle},
}

func isValidIBDTransition(from, to ibdState) bool {
	for _, allowed := range ibdTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ibdStateMachine tracks the sync state of a single peer
type ibdStateMachine struct {
	state    ibdState
	peerName string
}

func newIBDStateMachine(peerName string) *ibdStateMachine {
	return &ibdStateMachine{
		state:    ibdStateIdle,
		peerName: peerName,
	}
}

func (sm *ibdStateMachine) transitionTo(to ibdState) error {
	if !isValidIBDTransition(sm.state, to) {
		return errors.Errorf("invalid IBD transition from %s to %s with peer %s", sm.state, to, sm.peerName)
	}
	log.Debugf("IBD with peer %s: %s -> %s", sm.peerName, sm.state, to)
	sm.state = to
	return nil
}

// reset moves the machine back to Idle from whatever state it is in
func (sm *ibdStateMachine) reset() {
	if sm.state == ibdStateIdle {
		return
	}
	log.Debugf("IBD with peer %s: %s -> %s", sm.peerName, sm.state, ibdStateIdle)
	sm.state = ibdStateIdle
}
