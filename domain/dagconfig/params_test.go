package dagconfig

import (
	"testing"

	"github.com/pkg/errors"
)

func TestGhostdagKTable(t *testing.T) {
	expected := map[uint64]uint8{1: 18, 2: 31, 3: 43, 4: 54, 5: 66, 6: 77, 7: 89, 8: 100, 9: 112, 10: 124}
	for bps, k := range expected {
		got, err := GhostdagK(bps)
		if err != nil {
			t.Fatalf("GhostdagK(%d): %s", bps, err)
		}
		if uint8(got) != k {
			t.Errorf("GhostdagK(%d) = %d, want %d", bps, got, k)
		}
	}

	for _, bps := range []uint64{0, 11, 32} {
		_, err := GhostdagK(bps)
		if !errors.Is(err, ErrUnsupportedBPS) {
			t.Errorf("GhostdagK(%d): expected ErrUnsupportedBPS, got %v", bps, err)
		}
	}
}

func TestDerivedParams(t *testing.T) {
	if MainnetParams.K != 18 || Testnet11Params.K != 124 {
		t.Fatalf("unexpected K values %d, %d", MainnetParams.K, Testnet11Params.K)
	}
	if MainnetParams.FinalityDepth != 86400 || Testnet11Params.FinalityDepth != 864000 {
		t.Errorf("unexpected finality depths %d, %d", MainnetParams.FinalityDepth, Testnet11Params.FinalityDepth)
	}
	if MainnetParams.MergeSetSizeLimit != 180 {
		t.Errorf("unexpected mergeset size limit %d", MainnetParams.MergeSetSizeLimit)
	}
	if MainnetParams.MaxBlockParents != 10 || Testnet11Params.MaxBlockParents != 16 {
		t.Errorf("unexpected max block parents %d, %d", MainnetParams.MaxBlockParents, Testnet11Params.MaxBlockParents)
	}
	expectedPruningDepth := uint64(2*86400 + 4*180*18 + 2*18 + 2)
	if MainnetParams.PruningDepth != expectedPruningDepth {
		t.Errorf("pruning depth is %d, want %d", MainnetParams.PruningDepth, expectedPruningDepth)
	}

	for _, params := range []*Params{&MainnetParams, &TestnetParams, &Testnet11Params, &SimnetParams, &DevnetParams} {
		if err := params.Validate(); err != nil {
			t.Errorf("%s: %s", params.Name, err)
		}
	}
}

func TestRegister(t *testing.T) {
	if err := Register(&MainnetParams); !errors.Is(err, ErrDuplicateNet) {
		t.Fatalf("expected ErrDuplicateNet, got %v", err)
	}

	params, err := ParamsByName("calico-testnet-11")
	if err != nil {
		t.Fatalf("ParamsByName: %s", err)
	}
	if params != &Testnet11Params {
		t.Fatalf("ParamsByName returned unexpected params %s", params.Name)
	}

	if _, err := ParamsByName("no-such-net"); !errors.Is(err, ErrUnknownNet) {
		t.Fatalf("expected ErrUnknownNet, got %v", err)
	}
}
