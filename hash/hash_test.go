package hash

import (
	"crypto/sha256"
	"testing"
)

func TestSumMatchesSHA256(t *testing.T) {
	want := sha256.Sum256([]byte("ledger"))
	if got := Sum([]byte("ledger")); got != Hash(want) {
		t.Fatalf("Sum mismatch: got %s", got)
	}
}

func TestExtendChains(t *testing.T) {
	var zero Hash
	a := Extend(zero, []byte("x"))
	b := Sum(append(zero[:], 'x'))
	if a != b {
		t.Fatalf("Extend must equal Sum(id || data)")
	}
	if Extend(a, []byte("x")) == a {
		t.Fatalf("expected chained hash to differ")
	}
}

func TestParseRoundTrip(t *testing.T) {
	h := Sum([]byte("id"))
	got, err := Parse("0x" + h.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch")
	}
	if _, err := Parse("abcd"); err == nil {
		t.Fatalf("expected length error")
	}
	if !(Hash{}).IsZero() || h.IsZero() {
		t.Fatalf("IsZero mismatch")
	}
}
