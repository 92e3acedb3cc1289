package ghostdagmanager

import (
	"math/big"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

func TestLessBreaksTiesBySmallerHash(t *testing.T) {
	gm := &ghostdagManager{k: 18}

	smallHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
	bigHash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{2})
	dataWithWork := func(work int64) *externalapi.BlockGHOSTDAGData {
		return externalapi.NewBlockGHOSTDAGData(1, big.NewInt(work), nil, nil, nil, nil)
	}

	if !gm.Less(smallHash, dataWithWork(1), bigHash, dataWithWork(2)) {
		t.Fatalf("less blue work must rank lower regardless of hash")
	}
	if gm.Less(bigHash, dataWithWork(3), smallHash, dataWithWork(2)) {
		t.Fatalf("more blue work must rank higher regardless of hash")
	}
	if !gm.Less(bigHash, dataWithWork(5), smallHash, dataWithWork(5)) {
		t.Fatalf("on equal blue work the larger hash must rank lower")
	}
	if gm.Less(smallHash, dataWithWork(5), bigHash, dataWithWork(5)) {
		t.Fatalf("on equal blue work the smaller hash must rank higher")
	}
}
