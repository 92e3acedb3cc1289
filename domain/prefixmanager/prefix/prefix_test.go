package prefix

import (
	"bytes"
	"testing"
)

func TestFlip(t *testing.T) {
	active := &Prefix{}
	staging := active.Flip()
	if bytes.Equal(active.Serialize(), staging.Serialize()) {
		t.Fatalf("flipping must select the other slot")
	}
	if !bytes.Equal(active.Serialize(), staging.Flip().Serialize()) {
		t.Fatalf("flipping twice must return to the original slot")
	}
}

func TestDeserialize(t *testing.T) {
	for _, p := range []*Prefix{{}, (&Prefix{}).Flip()} {
		deserialized, err := Deserialize(p.Serialize())
		if err != nil {
			t.Fatalf("Deserialize: %+v", err)
		}
		if *deserialized != *p {
			t.Fatalf("expected %s but got %s", p, deserialized)
		}
	}

	for _, invalid := range [][]byte{nil, {}, {2}, {0, 1}} {
		_, err := Deserialize(invalid)
		if err == nil {
			t.Errorf("expected an error for %x", invalid)
		}
	}
}
