package transaction

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"xdao.co/ledgertx/codec"
	"xdao.co/ledgertx/hash"
	"xdao.co/ledgertx/keys"
	"xdao.co/ledgertx/plan"
)

func TestSerializeClaim(t *testing.T) {
	claim0 := &Transaction{
		Plan: plan.NewPay(plan.Payment{}),
	}
	buf := claim0.Marshal()
	claim1, err := Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(claim0, claim1) {
		t.Fatalf("round trip mismatch: %#v vs %#v", claim0, claim1)
	}
	// 32 from + (4 tag + 8 tokens + 32 to) + 8 tokens + 32 last_id + 64 sig
	if len(buf) != 32+44+8+32+64 {
		t.Fatalf("unexpected encoding length %d", len(buf))
	}
}

func TestSignedRoundTrip(t *testing.T) {
	alice := mustKeypair(t, 0xA1)
	bob := mustKeypair(t, 0xB2)
	txs := []*Transaction{
		New(alice, bob.Pubkey(), 42, hash.Sum([]byte("x"))),
		NewOnDate(alice, bob.Pubkey(), time.Date(2026, 2, 3, 4, 5, 6, 7_000_000, time.UTC), 9, hash.Hash{}),
	}
	for _, tr := range txs {
		b := tr.Marshal()
		got, err := Unmarshal(b)
		if err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if !reflect.DeepEqual(tr, got) {
			t.Fatalf("round trip mismatch")
		}
		if !got.Verify() {
			t.Fatalf("decoded transaction must still verify")
		}
		if !bytes.Equal(got.Marshal(), b) {
			t.Fatalf("re-encoding must be byte-identical")
		}
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	alice := mustKeypair(t, 0xA1)
	good := New(alice, alice.Pubkey(), 1, hash.Hash{}).Marshal()

	if _, err := Unmarshal(good[:len(good)-1]); RuleID(err) != codec.RuleTruncated {
		t.Fatalf("expected truncated error, got %v", err)
	}
	if _, err := Unmarshal(append(append([]byte(nil), good...), 0)); RuleID(err) != codec.RuleTrailingBytes {
		t.Fatalf("expected trailing bytes error, got %v", err)
	}
	bad := append([]byte(nil), good...)
	bad[keys.PublicKeySize] = 0x7F // plan tag
	_, err := Unmarshal(bad)
	if RuleID(err) != codec.RuleUnknownTag || !IsKind(err, KindEncoding) {
		t.Fatalf("expected unknown tag error, got %v", err)
	}
}

func TestIDIsContentAddress(t *testing.T) {
	alice := mustKeypair(t, 0xA1)
	bob := mustKeypair(t, 0xB2)
	a := New(alice, bob.Pubkey(), 1, hash.Hash{})
	b := New(alice, bob.Pubkey(), 2, hash.Hash{})

	idA, err := a.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	idA2, err := a.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	idB, err := b.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if !idA.Equals(idA2) || idA.Equals(idB) {
		t.Fatalf("expected stable, content-dependent IDs")
	}
}
