package id

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ID identifies a network connection
type ID struct {
	value uuid.UUID
}

// GenerateID generates a new ID
func GenerateID() (*ID, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &ID{value: value}, nil
}

// NewID creates an ID from the given bytes
func NewID(bytes []byte) (*ID, error) {
	value, err := uuid.FromBytes(bytes)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid ID bytes %x", bytes)
	}
	return &ID{value: value}, nil
}

// Equal returns whether id equals to other
func (id *ID) Equal(other *ID) bool {
	return id.value == other.value
}

// Serialize returns the byte representation of the ID
func (id *ID) Serialize() []byte {
	bytes := id.value
	return bytes[:]
}

func (id *ID) String() string {
	return id.value.String()
}
