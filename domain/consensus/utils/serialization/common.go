package serialization

import (
	"encoding/binary"
	"io"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	var err error
	switch e := element.(type) {
	case uint8:
		_, err = w.Write([]byte{e})
	case bool:
		if e {
			_, err = w.Write([]byte{0x01})
		} else {
			_, err = w.Write([]byte{0x00})
		}
	case uint16:
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], e)
		_, err = w.Write(buf[:])
	case uint32:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], e)
		_, err = w.Write(buf[:])
	case uint64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], e)
		_, err = w.Write(buf[:])
	case int64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(e))
		_, err = w.Write(buf[:])
	case *externalapi.DomainHash:
		_, err = w.Write(e.ByteSlice())
	case externalapi.DomainTransactionID:
		_, err = w.Write(e.ByteSlice())
	case externalapi.DomainSubnetworkID:
		_, err = w.Write(e[:])
	case []byte:
		err = WriteVarBytes(w, e)
	default:
		return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
	}
	return errors.WithStack(err)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteVarBytes writes the length of data as a little endian uint64
// followed by the data itself.
func WriteVarBytes(w io.Writer, data []byte) error {
	err := WriteElement(w, uint64(len(data)))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return errors.WithStack(err)
}
