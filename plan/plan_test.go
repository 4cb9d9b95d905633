package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/ledgertx/codec"
	"xdao.co/ledgertx/keys"
)

func pubkey(b byte) keys.PublicKey {
	var pk keys.PublicKey
	for i := range pk {
		pk[i] = b
	}
	return pk
}

func TestPayVerify(t *testing.T) {
	p := NewPay(Payment{Tokens: 42, To: pubkey(1)})
	assert.True(t, p.Verify(42))
	assert.False(t, p.Verify(41), "overspend must fail")
	assert.False(t, p.Verify(43), "underspend must fail")
}

func TestRaceVerifyChecksEveryBranch(t *testing.T) {
	sender, to := pubkey(1), pubkey(2)
	when := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r := Postdated(sender, to, when, 10)
	require.True(t, r.Verify(10))

	overspend := r
	overspend.A.Payment.Tokens = 11
	assert.False(t, overspend.Verify(10), "first branch pays more")

	whoops := r
	whoops.B.Payment.Tokens = 9
	assert.False(t, whoops.Verify(10), "refund branch pays less")

	assert.Len(t, r.Payments(), 2)
	assert.Equal(t, to, r.A.Payment.To)
	assert.Equal(t, sender, r.B.Payment.To)
	assert.Equal(t, Signature{Key: sender}, r.B.Condition)
}

func TestAfterVerify(t *testing.T) {
	a := NewAfter(Branch{Condition: Signature{Key: pubkey(3)}, Payment: Payment{Tokens: 5, To: pubkey(4)}})
	assert.True(t, a.Verify(5))
	assert.False(t, a.Verify(6))
}

func TestPayoutsMatchRejectsEmpty(t *testing.T) {
	assert.False(t, payoutsMatch(nil, 0))
}

func TestPlanRoundTrip(t *testing.T) {
	when := time.Date(2026, 3, 4, 5, 6, 7, 123_000_000, time.UTC)
	plans := []Plan{
		NewPay(Payment{}),
		NewPay(Payment{Tokens: -1, To: pubkey(9)}),
		Postdated(pubkey(1), pubkey(2), when, 1_000_000),
		NewAfter(Branch{Condition: NewTimestamp(when), Payment: Payment{Tokens: 3, To: pubkey(5)}}),
	}
	for _, p := range plans {
		got, err := Decode(Encode(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
		assert.Equal(t, Encode(p), Encode(got))
	}
}

func TestPayEncodingLayout(t *testing.T) {
	to := pubkey(0xEE)
	got := Encode(NewPay(Payment{Tokens: 1, To: to}))

	want := []byte{0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}
	want = append(want, to[:]...)
	assert.Equal(t, want, got)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	good := Encode(Postdated(pubkey(1), pubkey(2), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 7))

	_, err := Decode(good[:len(good)-1])
	assert.Equal(t, codec.RuleTruncated, codec.RuleID(err))

	_, err = Decode(append(append([]byte(nil), good...), 0))
	assert.Equal(t, codec.RuleTrailingBytes, codec.RuleID(err))

	_, err = Decode([]byte{9, 0, 0, 0})
	assert.Equal(t, codec.RuleUnknownTag, codec.RuleID(err))

	badCond := append([]byte(nil), good...)
	badCond[4] = 7 // condition tag of the first branch
	_, err = Decode(badCond)
	assert.Equal(t, codec.RuleUnknownTag, codec.RuleID(err))
}

func TestTimestampCanonicalText(t *testing.T) {
	cases := map[string]time.Time{
		"2026-01-01T00:00:00Z":           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		"2026-01-01T00:00:00.500Z":       time.Date(2026, 1, 1, 0, 0, 0, 500_000_000, time.UTC),
		"2026-01-01T00:00:00.000250Z":    time.Date(2026, 1, 1, 0, 0, 0, 250_000, time.UTC),
		"2026-01-01T00:00:00.000000001Z": time.Date(2026, 1, 1, 0, 0, 0, 1, time.UTC),
	}
	for want, in := range cases {
		assert.Equal(t, want, FormatTime(in))
		got, err := ParseTime(want)
		require.NoError(t, err)
		assert.True(t, got.Equal(in))
	}

	offset := time.FixedZone("plus2", 2*60*60)
	assert.Equal(t, "2026-01-01T00:00:00Z", FormatTime(time.Date(2026, 1, 1, 2, 0, 0, 0, offset)))

	for _, bad := range []string{"2026-01-01T02:00:00+02:00", "2026-01-01T00:00:00.5Z", "yesterday"} {
		_, err := ParseTime(bad)
		assert.Equal(t, codec.RuleNonCanonicalTimestamp, codec.RuleID(err), bad)
	}
}
