package consensus

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/dagconfig"
	"github.com/pkg/errors"
)

func TestInvariantViolationHaltsConsensus(t *testing.T) {
	config := NewConfig(&dagconfig.SimnetParams)
	tc, teardown, err := NewFactory().NewTestConsensus(config, "TestInvariantViolationHaltsConsensus")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	c := tc.(*testConsensus).consensus

	ruleError := errors.New("not an invariant violation")
	if c.checkError(ruleError) != ruleError {
		t.Fatalf("checkError must return its input")
	}
	if c.halted {
		t.Fatalf("A regular error must not halt the consensus")
	}

	violation := model.NewInvariantViolationError(config.GenesisHash, "the UTXO set of %s is corrupt", config.GenesisHash)
	if !model.IsInvariantViolationError(c.checkError(violation)) {
		t.Fatalf("checkError must return the invariant violation")
	}
	if !c.halted {
		t.Fatalf("An invariant violation must halt the consensus")
	}

	_, err = tc.GetVirtualSelectedParent()
	if !errors.Is(err, ErrConsensusHalted) {
		t.Fatalf("Expected ErrConsensusHalted but got %+v", err)
	}
	_, err = tc.ValidateAndInsertBlock(&externalapi.DomainBlock{Header: config.GenesisBlock.Header}, true)
	if !errors.Is(err, ErrConsensusHalted) {
		t.Fatalf("Expected ErrConsensusHalted but got %+v", err)
	}
}
