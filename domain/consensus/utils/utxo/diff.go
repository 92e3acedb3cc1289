package utxo

import (
	"fmt"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/transactionhelper"
	"github.com/pkg/errors"
)

var errClosedIterator = errors.New("tried using a closed iterator")

// ErrDoubleAdd is returned when an outpoint that is already present is added again
var ErrDoubleAdd = errors.New("outpoint is already added")

// ErrDoubleRemove is returned when an outpoint that was already removed is removed again
var ErrDoubleRemove = errors.New("outpoint is already removed")

// mutableUTXODiff describes the set of entries to add to and to remove from a base UTXO set.
// An outpoint may appear in both toRemove and toAdd, in which case the base entry is
// replaced by the added one.
type mutableUTXODiff struct {
	toAdd    utxoCollection
	toRemove utxoCollection

	immutableReferences []*immutableUTXODiff
}

// NewMutableUTXODiff creates an empty mutable UTXO diff
func NewMutableUTXODiff() externalapi.MutableUTXODiff {
	return newMutableUTXODiff()
}

func newMutableUTXODiff() *mutableUTXODiff {
	return &mutableUTXODiff{
		toAdd:    utxoCollection{},
		toRemove: utxoCollection{},
	}
}

// NewUTXODiffFromCollections returns a new immutable UTXODiff with the given toAdd and toRemove collections
func NewUTXODiffFromCollections(toAdd, toRemove externalapi.UTXOCollection) (externalapi.UTXODiff, error) {
	add, ok := toAdd.(utxoCollection)
	if !ok {
		return nil, errors.New("toAdd is not of type utxoCollection")
	}
	remove, ok := toRemove.(utxoCollection)
	if !ok {
		return nil, errors.New("toRemove is not of type utxoCollection")
	}
	return newImmutableUTXODiff(&mutableUTXODiff{
		toAdd:    add.clone(),
		toRemove: remove.clone(),
	}), nil
}

func (mud *mutableUTXODiff) invalidateImmutableReferences() {
	for _, immutableReference := range mud.immutableReferences {
		immutableReference.isInvalidated = true
	}
	mud.immutableReferences = nil
}

func (mud *mutableUTXODiff) ToImmutable() externalapi.UTXODiff {
	immutableReference := newImmutableUTXODiff(mud)
	mud.immutableReferences = append(mud.immutableReferences, immutableReference)
	return immutableReference
}

func (mud *mutableUTXODiff) WithDiff(other externalapi.UTXODiff) (externalapi.UTXODiff, error) {
	clone := mud.clone()
	err := clone.WithDiffInPlace(other)
	if err != nil {
		return nil, err
	}
	return newImmutableUTXODiff(clone), nil
}

// WithDiffInPlace applies other on top of this diff: other's removals first, then its additions
func (mud *mutableUTXODiff) WithDiffInPlace(other externalapi.UTXODiff) error {
	mud.invalidateImmutableReferences()

	iterator := other.ToRemove().Iterator()
	defer iterator.Close()
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return err
		}
		err = mud.RemoveEntry(outpoint, entry)
		if err != nil {
			return err
		}
	}

	addIterator := other.ToAdd().Iterator()
	defer addIterator.Close()
	for ok := addIterator.First(); ok; ok = addIterator.Next() {
		outpoint, entry, err := addIterator.Get()
		if err != nil {
			return err
		}
		err = mud.AddEntry(outpoint, entry)
		if err != nil {
			return err
		}
	}
	return nil
}

// AddTransaction removes every input's entry and adds every output of the given transaction.
// Inputs must carry their UTXO entries.
func (mud *mutableUTXODiff) AddTransaction(transaction *externalapi.DomainTransaction, blockDAAScore uint64) error {
	mud.invalidateImmutableReferences()

	for _, input := range transaction.Inputs {
		if input.UTXOEntry == nil {
			return errors.Errorf("input %s is missing its UTXO entry", input.PreviousOutpoint)
		}
		err := mud.RemoveEntry(&input.PreviousOutpoint, input.UTXOEntry)
		if err != nil {
			return err
		}
	}

	isCoinbase := transactionhelper.IsCoinBase(transaction)
	transactionID := consensushashing.TransactionID(transaction)
	for i, output := range transaction.Outputs {
		outpoint := externalapi.NewDomainOutpoint(transactionID, uint32(i))
		entry := NewUTXOEntry(output.Value, output.ScriptPublicKey, isCoinbase, blockDAAScore)
		err := mud.AddEntry(outpoint, entry)
		if err != nil {
			return err
		}
	}
	return nil
}

func (mud *mutableUTXODiff) AddEntry(outpoint *externalapi.DomainOutpoint, entry externalapi.UTXOEntry) error {
	mud.invalidateImmutableReferences()

	if removedEntry, ok := mud.toRemove.Get(outpoint); ok && removedEntry.Equal(entry) && !mud.toAdd.Contains(outpoint) {
		mud.toRemove.remove(outpoint)
		return nil
	}
	if mud.toAdd.Contains(outpoint) {
		return errors.Wrapf(ErrDoubleAdd, "cannot add outpoint %s", outpoint)
	}
	mud.toAdd.add(outpoint, entry)
	return nil
}

func (mud *mutableUTXODiff) RemoveEntry(outpoint *externalapi.DomainOutpoint, entry externalapi.UTXOEntry) error {
	mud.invalidateImmutableReferences()

	if mud.toAdd.Contains(outpoint) {
		mud.toAdd.remove(outpoint)
		return nil
	}
	if mud.toRemove.Contains(outpoint) {
		return errors.Wrapf(ErrDoubleRemove, "cannot remove outpoint %s", outpoint)
	}
	mud.toRemove.add(outpoint, entry)
	return nil
}

func (mud *mutableUTXODiff) ToAdd() externalapi.UTXOCollection {
	return mud.toAdd
}

func (mud *mutableUTXODiff) ToRemove() externalapi.UTXOCollection {
	return mud.toRemove
}

func (mud *mutableUTXODiff) clone() *mutableUTXODiff {
	return &mutableUTXODiff{
		toAdd:    mud.toAdd.clone(),
		toRemove: mud.toRemove.clone(),
	}
}

func (mud *mutableUTXODiff) String() string {
	return fmt.Sprintf("toAdd: %s; toRemove: %s", mud.toAdd, mud.toRemove)
}

type immutableUTXODiff struct {
	mutableUTXODiff *mutableUTXODiff
	isInvalidated   bool
}

func newImmutableUTXODiff(mutableDiff *mutableUTXODiff) *immutableUTXODiff {
	return &immutableUTXODiff{mutableUTXODiff: mutableDiff}
}

func (iud *immutableUTXODiff) ToAdd() externalapi.UTXOCollection {
	if iud.isInvalidated {
		panic("Attempt to read from an invalidated UTXODiff")
	}
	return iud.mutableUTXODiff.ToAdd()
}

func (iud *immutableUTXODiff) ToRemove() externalapi.UTXOCollection {
	if iud.isInvalidated {
		panic("Attempt to read from an invalidated UTXODiff")
	}
	return iud.mutableUTXODiff.ToRemove()
}

func (iud *immutableUTXODiff) WithDiff(other externalapi.UTXODiff) (externalapi.UTXODiff, error) {
	if iud.isInvalidated {
		panic("Attempt to read from an invalidated UTXODiff")
	}
	return iud.mutableUTXODiff.WithDiff(other)
}

// Reversed returns the diff that undoes this one
func (iud *immutableUTXODiff) Reversed() externalapi.UTXODiff {
	if iud.isInvalidated {
		panic("Attempt to read from an invalidated UTXODiff")
	}
	return newImmutableUTXODiff(&mutableUTXODiff{
		toAdd:    iud.mutableUTXODiff.toRemove.clone(),
		toRemove: iud.mutableUTXODiff.toAdd.clone(),
	})
}

func (iud *immutableUTXODiff) CloneMutable() externalapi.MutableUTXODiff {
	if iud.isInvalidated {
		panic("Attempt to read from an invalidated UTXODiff")
	}
	return iud.mutableUTXODiff.clone()
}

func (iud *immutableUTXODiff) String() string {
	return iud.mutableUTXODiff.String()
}
