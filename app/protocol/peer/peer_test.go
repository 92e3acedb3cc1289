package peer

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

func TestRequestIBDLatestWins(t *testing.T) {
	peer := New(nil)

	blocks := []*externalapi.DomainBlock{{}, {}, {}}
	for _, block := range blocks {
		peer.RequestIBD(block)
	}

	select {
	case relayBlock := <-peer.IBDRequestChannel():
		if relayBlock != blocks[2] {
			t.Fatalf("Expected the latest posted job to be pending")
		}
	default:
		t.Fatalf("Expected a pending IBD job")
	}

	select {
	case <-peer.IBDRequestChannel():
		t.Fatalf("Expected a single pending job")
	default:
	}
}

func TestIBDAttempts(t *testing.T) {
	peer := New(nil)
	for i := 1; i <= 3; i++ {
		if attempts := peer.IncrementIBDAttempts(); attempts != i {
			t.Fatalf("Expected %d attempts but got %d", i, attempts)
		}
	}
	peer.ResetIBDAttempts()
	if attempts := peer.IncrementIBDAttempts(); attempts != 1 {
		t.Fatalf("Expected attempts to restart at 1 but got %d", attempts)
	}
}

func TestClose(t *testing.T) {
	peer := New(nil)
	select {
	case <-peer.Closed():
		t.Fatalf("A new peer must not be closed")
	default:
	}

	peer.Close()
	peer.Close()
	select {
	case <-peer.Closed():
	default:
		t.Fatalf("Expected the peer to be closed")
	}
}
