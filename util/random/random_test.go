package random

import (
	"io"
	"testing"

	"github.com/pkg/errors"
)

type fakeRandReader struct {
	n   int
	err error
}

func (r *fakeRandReader) Read(p []byte) (int, error) {
	n := r.n
	if n > len(p) {
		n = len(p)
	}
	return n, r.err
}

// TestRandomUint64 checks that values below 2^56 are as rare as a uniform
// 64-bit source makes them: about one in 2^8 draws.
func TestRandomUint64(t *testing.T) {
	tries := 1 << 8
	watermark := uint64(1 << 56)
	maxHits := 5

	numHits := 0
	for i := 0; i < tries; i++ {
		nonce, err := Uint64()
		if err != nil {
			t.Fatalf("Uint64 iteration %d failed: %v", i, err)
		}
		if nonce < watermark {
			numHits++
		}
	}
	if numHits > maxHits {
		t.Errorf("got %d values below %d in %d runs, expected at most %d",
			numHits, watermark, tries, maxHits)
	}
}

func TestRandomUint64ShortRead(t *testing.T) {
	nonce, err := randomUint64(&fakeRandReader{n: 2, err: io.EOF})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected %v, got %v", io.ErrUnexpectedEOF, err)
	}
	if nonce != 0 {
		t.Errorf("nonce is not 0: %d", nonce)
	}
}
