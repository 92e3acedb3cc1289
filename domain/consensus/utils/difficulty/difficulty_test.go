package difficulty

import (
	"math/big"
	"testing"
)

func TestBigToCompact(t *testing.T) {
	tests := []struct {
		in  int64
		out uint32
	}{
		{0, 0},
		{-1, 25231360},
		{9223372036854775807, 0x087fffff},
	}

	for x, test := range tests {
		n := big.NewInt(test.in)
		r := BigToCompact(n)
		if r != test.out {
			t.Errorf("TestBigToCompact test #%d failed: got %d want %d",
				x, r, test.out)
		}
	}
}

func TestCompactToBig(t *testing.T) {
	tests := []struct {
		before uint32
		intHex string
		after  uint32
	}{
		{0x00000000, "0", 0x00000000},
		{0x0989680, "0", 0x00000000},
		{0x87fffff, "7fffff0000000000", 0x087fffff},
		{0x1810000, "-1", 0x1810000},
		{0x1d00ffff, "ffff0000000000000000000000000000000000000000000000000000", 0x1d00ffff},
	}

	for i, test := range tests {
		n := CompactToBig(test.before)
		convertBack := BigToCompact(n)
		got := n.Text(16)
		if got != test.intHex {
			t.Errorf("TestCompactToBig test #%d failed: got %s want %s",
				i, got, test.intHex)
			continue
		}
		if convertBack != test.after {
			t.Errorf("TestCompactToBig test #%d failed: got: 0x%08x want 0x%08x",
				i, convertBack, test.after)
		}
	}
}

func TestCalcWork(t *testing.T) {
	tests := []struct {
		in  uint32
		out int64
	}{
		{10000000, 0},
		{0x1810000, 0}, // negative target
		{0x2100ffff, 1},
	}

	for x, test := range tests {
		r := CalcWork(test.in).Int64()
		if r != test.out {
			t.Errorf("TestCalcWork test #%d failed: got %v want %d",
				x, r, test.out)
		}
	}

	easy := CalcWork(0x207fffff)
	hard := CalcWork(0x1d00ffff)
	if easy.Cmp(hard) >= 0 {
		t.Errorf("a lower target must carry more work")
	}
}
