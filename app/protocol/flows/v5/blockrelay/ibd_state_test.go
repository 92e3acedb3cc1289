package blockrelay

import (
	"testing"
)

func TestIBDStateTransitions(t *testing.T) {
	tests := []struct {
		from, to ibdState
		valid    bool
	}{
		{ibdStateIdle, ibdStateNegotiateLocator, true},
		{ibdStateIdle, ibdStateHeaderSync, false},
		{ibdStateIdle, ibdStateSynced, false},
		{ibdStateNegotiateLocator, ibdStateHeaderSync, true},
		{ibdStateNegotiateLocator, ibdStatePruningProofExchange, true},
		{ibdStateNegotiateLocator, ibdStateSynced, true},
		{ibdStateNegotiateLocator, ibdStateBlockDownload, false},
		{ibdStateHeaderSync, ibdStateBlockDownload, true},
		{ibdStateHeaderSync, ibdStateSynced, false},
		{ibdStatePruningProofExchange, ibdStateHeaderSync, true},
		{ibdStatePruningProofExchange, ibdStateBlockDownload, true},
		{ibdStatePruningProofExchange, ibdStateSynced, false},
		{ibdStateBlockDownload, ibdStateSynced, true},
		{ibdStateBlockDownload, ibdStateHeaderSync, false},
		{ibdStateSynced, ibdStateNegotiateLocator, true},
		{ibdStateSynced, ibdStateBlockDownload, false},
	}

	for _, test := range tests {
		sm := &ibdStateMachine{state: test.from, peerName: "test"}
		err := sm.transitionTo(test.to)
		if test.valid {
			if err != nil {
				t.Errorf("Expected %s -> %s to be valid but got: %s", test.from, test.to, err)
				continue
			}
			if sm.state != test.to {
				t.Errorf("Expected state %s after a valid transition but got %s", test.to, sm.state)
			}
			continue
		}
		if err == nil {
			t.Errorf("Expected %s -> %s to be rejected", test.from, test.to)
		}
		if sm.state != test.from {
			t.Errorf("A rejected transition must keep state %s but got %s", test.from, sm.state)
		}
	}
}

func TestIBDStateEveryStateFallsBackToIdle(t *testing.T) {
	for state := range ibdTransitions {
		if state == ibdStateIdle {
			continue
		}
		if !isValidIBDTransition(state, ibdStateIdle) {
			t.Errorf("Expected %s to be able to fall back to Idle", state)
		}
		sm := &ibdStateMachine{state: state, peerName: "test"}
		sm.reset()
		if sm.state != ibdStateIdle {
			t.Errorf("Expected reset to move %s to Idle", state)
		}
	}
}

func TestIBDStateHappyPaths(t *testing.T) {
	paths := [][]ibdState{
		{ibdStateNegotiateLocator, ibdStateHeaderSync, ibdStateBlockDownload, ibdStateSynced},
		{ibdStateNegotiateLocator, ibdStatePruningProofExchange, ibdStateHeaderSync, ibdStateBlockDownload, ibdStateSynced},
		{ibdStateNegotiateLocator, ibdStateSynced, ibdStateNegotiateLocator, ibdStateHeaderSync},
	}
	for i, path := range paths {
		sm := newIBDStateMachine("test")
		for _, state := range path {
			err := sm.transitionTo(state)
			if err != nil {
				t.Fatalf("path %d: %s", i, err)
			}
		}
	}
}
