package ruleerrors

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

func TestNewErrMissingTxOut(t *testing.T) {
	outer := NewErrMissingTxOut([]*externalapi.DomainOutpoint{{TransactionID: externalapi.DomainTransactionID{}, Index: 5}})
	inner := &ErrMissingTxOut{}
	if !errors.As(outer, inner) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain ErrMissingTxOut in it")
	}

	if len(inner.MissingOutpoints) != 1 {
		t.Fatalf("TestNewErrMissingTxOut: Expected len(inner.MissingOutpoints) 1, found: %d", len(inner.MissingOutpoints))
	}
	if inner.MissingOutpoints[0].Index != 5 {
		t.Fatalf("TestNewErrMissingTxOut: Expected 5. found: %d", inner.MissingOutpoints[0].Index)
	}

	rule := &RuleError{}
	if !errors.As(outer, rule) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain RuleError in it")
	}
	if rule.message != "ErrMissingTxOut" {
		t.Fatalf("TestNewErrMissingTxOut: Expected message = 'ErrMissingTxOut', found: '%s'", rule.message)
	}
	if !IsRuleError(outer) {
		t.Fatal("TestNewErrMissingTxOut: IsRuleError should be true")
	}
}

func TestNewErrMissingParents(t *testing.T) {
	missing := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xaa})
	outer := NewErrMissingParents([]*externalapi.DomainHash{missing})

	inner := &ErrMissingParents{}
	if !errors.As(outer, inner) {
		t.Fatal("TestNewErrMissingParents: Outer should contain ErrMissingParents in it")
	}
	if len(inner.MissingParentHashes) != 1 || !inner.MissingParentHashes[0].Equal(missing) {
		t.Fatalf("TestNewErrMissingParents: unexpected missing parents %v", inner.MissingParentHashes)
	}
}

func TestWrappedRuleErrorIsMatched(t *testing.T) {
	err := errors.Wrapf(ErrBadMerkleRoot, "block %s", "abc")
	if !errors.Is(err, ErrBadMerkleRoot) {
		t.Fatal("TestWrappedRuleErrorIsMatched: expected errors.Is to match ErrBadMerkleRoot")
	}
	if errors.Is(err, ErrBadUTXOCommitment) {
		t.Fatal("TestWrappedRuleErrorIsMatched: did not expect errors.Is to match ErrBadUTXOCommitment")
	}
	if IsRuleError(errors.New("plain")) {
		t.Fatal("TestWrappedRuleErrorIsMatched: a plain error is not a rule error")
	}
}
