package ruleerrors

import (
	"fmt"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock")

	// ErrBlockVersionIsUnknown indicates that the block version is unknown.
	ErrBlockVersionIsUnknown = newRuleError("ErrBlockVersionIsUnknown")

	//ErrTimeTooMuchInTheFuture indicates that the block timestamp is too much in the future.
	ErrTimeTooMuchInTheFuture = newRuleError("ErrTimeTooMuchInTheFuture")

	// ErrNoParents indicates that the block is missing parents
	ErrNoParents = newRuleError("ErrNoParents")

	// ErrUnexpectedDAAScore indicates specified DAA score does not align with
	// the expected value.
	ErrUnexpectedDAAScore = newRuleError("ErrUnexpectedDAAScore")

	// ErrUnexpectedBlueWork indicates specified blue work does not align with
	// the expected value.
	ErrUnexpectedBlueWork = newRuleError("ErrUnexpectedBlueWork")

	// ErrUnexpectedBlueScore indicates specified blue score does not align with
	// the expected value.
	ErrUnexpectedBlueScore = newRuleError("ErrUnexpectedBlueScore")

	// ErrTargetTooHigh indicates specified bits do not align with
	// the expected value either because it is above the valid
	// range.
	ErrTargetTooHigh = newRuleError("ErrTargetTooHigh")

	// ErrNegativeTarget indicates specified bits do not align with
	// the expected value either because it is negative.
	ErrNegativeTarget = newRuleError("ErrNegativeTarget")

	// ErrInvalidPoW indicates that the block proof-of-work is invalid.
	ErrInvalidPoW = newRuleError("ErrInvalidPoW")

	// ErrBadMerkleRoot indicates the calculated merkle root does not match
	// the expected value.
	ErrBadMerkleRoot = newRuleError("ErrBadMerkleRoot")

	// ErrBadUTXOCommitment indicates the calculated UTXO commitment does not match
	// the expected value.
	ErrBadUTXOCommitment = newRuleError("ErrBadUTXOCommitment")

	// ErrBadAcceptedIDMerkleRoot indicates the calculated accepted transaction ID merkle root
	// does not match the expected value.
	ErrBadAcceptedIDMerkleRoot = newRuleError("ErrBadAcceptedIDMerkleRoot")

	// ErrNoTransactions indicates the block does not have a least one
	// transaction. A valid block must have at least the coinbase
	// transaction.
	ErrNoTransactions = newRuleError("ErrNoTransactions")

	// ErrTooManyTransactions indicates the block has more transactions than allowed
	ErrTooManyTransactions = newRuleError("ErrTooManyTransactions")

	// ErrNoTxInputs indicates a transaction does not have any inputs. A
	// valid transaction must have at least one input.
	ErrNoTxInputs = newRuleError("ErrNoTxInputs")

	// ErrBadTxOutValue indicates an output value for a transaction is
	// invalid in some way such as being out of range.
	ErrBadTxOutValue = newRuleError("ErrBadTxOutValue")

	// ErrDuplicateTxInputs indicates a transaction references the same
	// input more than once.
	ErrDuplicateTxInputs = newRuleError("ErrDuplicateTxInputs")

	// ErrDoubleSpendInSameBlock indicates a transaction
	// that spends an output that was already spent by another
	// transaction in the same block.
	ErrDoubleSpendInSameBlock = newRuleError("ErrDoubleSpendInSameBlock")

	// ErrDuplicateTx indicates a block contains an identical transaction
	// (or at least two transactions which hash to the same value). A
	// valid block may only contain unique transactions.
	ErrDuplicateTx = newRuleError("ErrDuplicateTx")

	// ErrSpendTooHigh indicates a transaction is attempting to spend more
	// value than the sum of all of its inputs.
	ErrSpendTooHigh = newRuleError("ErrSpendTooHigh")

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase = newRuleError("ErrFirstTxNotCoinbase")

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases = newRuleError("ErrMultipleCoinbases")

	// ErrBadCoinbasePayloadLen indicates the length of the payload
	// for a coinbase transaction is too high.
	ErrBadCoinbasePayloadLen = newRuleError("ErrBadCoinbasePayloadLen")

	// ErrBadCoinbaseTransaction indicates that the block's coinbase transaction is not build as expected
	ErrBadCoinbaseTransaction = newRuleError("ErrBadCoinbaseTransaction")

	// ErrTransactionVersionIsUnknown indicates that the transaction version is unknown.
	ErrTransactionVersionIsUnknown = newRuleError("ErrTransactionVersionIsUnknown")

	// ErrInvalidAncestorBlock indicates that an ancestor of this block has
	// already failed validation.
	ErrInvalidAncestorBlock = newRuleError("ErrInvalidAncestorBlock")

	// ErrInvalidParentsRelation indicates that one of the parents of a block
	// is also an ancestor of another parent
	ErrInvalidParentsRelation = newRuleError("ErrInvalidParentsRelation")

	// ErrInvalidParentsLevels indicates that the parents of a block above level zero are malformed
	ErrInvalidParentsLevels = newRuleError("ErrInvalidParentsLevels")

	// ErrTooManyParents indicates that a block points to more then `MaxBlockParents` parents
	ErrTooManyParents = newRuleError("ErrTooManyParents")

	// ErrViolatingBoundedMergeDepth indicates that a block merges a block
	// that is deeper than the merge depth below its selected parent
	ErrViolatingBoundedMergeDepth = newRuleError("ErrViolatingBoundedMergeDepth")

	// ErrViolatingMergeLimit indicates that a block merges more than mergeLimit blocks
	ErrViolatingMergeLimit = newRuleError("ErrViolatingMergeLimit")

	// ErrChainedTransactions indicates that a block contains a transaction that spends an output of a transaction
	// In the same block
	ErrChainedTransactions = newRuleError("ErrChainedTransactions")

	// ErrKnownInvalid indicates that the block is already known to be invalid
	ErrKnownInvalid = newRuleError("ErrKnownInvalid")

	// ErrBadPruningPointUTXOSet indicates that an imported pruning point UTXO set does not match its commitment
	ErrBadPruningPointUTXOSet = newRuleError("ErrBadPruningPointUTXOSet")

	// ErrWrongPruningPointHash indicates that the pruning point moved while its UTXO set was being served
	ErrWrongPruningPointHash = newRuleError("ErrWrongPruningPointHash")

	//ErrPruningPointViolation indicates that the pruning point isn't in the block past.
	ErrPruningPointViolation = newRuleError("ErrPruningPointViolation")

	// ErrUnexpectedPruningPoint indicates the header pruning point does not match the expected one
	ErrUnexpectedPruningPoint = newRuleError("ErrUnexpectedPruningPoint")

	// ErrPrunedBlock indicates that the block currently being validated had already been pruned.
	ErrPrunedBlock = newRuleError("ErrPrunedBlock")

	// ErrMissingParentBodies indicates a block body arrived before the bodies of its parents
	ErrMissingParentBodies = newRuleError("ErrMissingParentBodies")

	// ErrGenesisOnInitializedConsensus indicates a genesis block was submitted to a non-empty consensus
	ErrGenesisOnInitializedConsensus = newRuleError("ErrGenesisOnInitializedConsensus")

	// ErrBlockIsNotInTheDAG indicates a referenced block is unknown
	ErrBlockIsNotInTheDAG = newRuleError("ErrBlockIsNotInTheDAG")

	// ErrNotInFinalityConflict indicates ResolveFinalityConflict was called on a block that
	// does not violate finality
	ErrNotInFinalityConflict = newRuleError("ErrNotInFinalityConflict")

	// ErrPruningProofEmpty indicates an empty pruning point proof
	ErrPruningProofEmpty = newRuleError("ErrPruningProofEmpty")

	// ErrPruningProofMissingLink indicates a proof level that is not linked
	// through selected parents
	ErrPruningProofMissingLink = newRuleError("ErrPruningProofMissingLink")

	// ErrPruningProofBadLevel indicates a proof header that is placed at a level above its block level
	ErrPruningProofBadLevel = newRuleError("ErrPruningProofBadLevel")

	// ErrPruningProofNonIncreasingBlueWork indicates a proof level whose blue work does not strictly increase
	ErrPruningProofNonIncreasingBlueWork = newRuleError("ErrPruningProofNonIncreasingBlueWork")

	// ErrPruningProofInsufficientBlueWork indicates a proof that does not carry more work than the current pruning point
	ErrPruningProofInsufficientBlueWork = newRuleError("ErrPruningProofInsufficientBlueWork")

	// ErrPruningProofBadPruningPoint indicates a proof whose level zero does not end at its pruning point
	ErrPruningProofBadPruningPoint = newRuleError("ErrPruningProofBadPruningPoint")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// IsRuleError returns whether err is or wraps a RuleError
func IsRuleError(err error) bool {
	var ruleError RuleError
	return errors.As(err, &ruleError)
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// either does not exist or has already been spent.
type ErrMissingTxOut struct {
	MissingOutpoints []*externalapi.DomainOutpoint
}

func (e ErrMissingTxOut) Error() string {
	return fmt.Sprintf("missing the following outpoint: %v", e.MissingOutpoints)
}

// NewErrMissingTxOut Creates a new ErrMissingTxOut error wrapped in a RuleError
func NewErrMissingTxOut(missingOutpoints []*externalapi.DomainOutpoint) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingTxOut",
		inner:   ErrMissingTxOut{missingOutpoints},
	})
}

// ErrMissingParents indicates a block points to unknown parent(s).
type ErrMissingParents struct {
	MissingParentHashes []*externalapi.DomainHash
}

func (e ErrMissingParents) Error() string {
	return fmt.Sprintf("missing the following parent hashes: %v", e.MissingParentHashes)
}

// NewErrMissingParents creates a new ErrMissingParents error wrapped in a RuleError
func NewErrMissingParents(missingParentHashes []*externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingParents",
		inner:   ErrMissingParents{missingParentHashes},
	})
}

// InvalidTransaction is a struct containing an invalid transaction, and the error explaining why it's invalid.
type InvalidTransaction struct {
	Transaction *externalapi.DomainTransaction
	Error       error
}

func (invalid InvalidTransaction) String() string {
	return fmt.Sprintf("(%v: %s)", consensushashing.TransactionID(invalid.Transaction), invalid.Error)
}

// ErrInvalidTransactionsInNewBlock indicates that some transactions in a new block are invalid
type ErrInvalidTransactionsInNewBlock struct {
	InvalidTransactions []InvalidTransaction
}

func (e ErrInvalidTransactionsInNewBlock) Error() string {
	return fmt.Sprint(e.InvalidTransactions)
}

// NewErrInvalidTransactionsInNewBlock Creates a new ErrInvalidTransactionsInNewBlock error wrapped in a RuleError
func NewErrInvalidTransactionsInNewBlock(invalidTransactions []InvalidTransaction) error {
	return errors.WithStack(RuleError{
		message: "ErrInvalidTransactionsInNewBlock",
		inner:   ErrInvalidTransactionsInNewBlock{invalidTransactions},
	})
}
