// Package plan models the spending plans attached to ledger transactions.
//
// A Plan describes one or more mutually exclusive payout branches. The
// authorizing signature covers only the transaction's token amount, never the
// branch that eventually executes, so every reachable branch must pay out
// exactly that amount. Verify enforces this for every variant.
//
// Conditions are data only. Deciding when a Timestamp has passed or a
// Signature has been presented belongs to the ledger that applies the plan.
package plan

import (
	"fmt"

	"xdao.co/ledgertx/codec"
	"xdao.co/ledgertx/keys"
)

// Payment is an unconditional transfer of Tokens to To.
type Payment struct {
	Tokens int64
	To     keys.PublicKey
}

func (p Payment) encode(w *codec.Writer) {
	w.Int64(p.Tokens)
	w.Fixed(p.To[:])
}

func decodePayment(r *codec.Reader) (Payment, error) {
	var p Payment
	tokens, err := r.Int64("payment tokens")
	if err != nil {
		return p, err
	}
	p.Tokens = tokens
	if err := r.Fixed(p.To[:], "payment recipient"); err != nil {
		return p, err
	}
	return p, nil
}

// Branch pairs a Condition with the Payment it unlocks.
type Branch struct {
	Condition Condition
	Payment   Payment
}

func (b Branch) encode(w *codec.Writer) {
	encodeCondition(w, b.Condition)
	b.Payment.encode(w)
}

func decodeBranch(r *codec.Reader) (Branch, error) {
	c, err := decodeCondition(r)
	if err != nil {
		return Branch{}, err
	}
	p, err := decodePayment(r)
	if err != nil {
		return Branch{}, err
	}
	return Branch{Condition: c, Payment: p}, nil
}

// Tag is the encoded discriminant of a Plan variant.
type Tag uint32

const (
	TagPay   Tag = 0
	TagRace  Tag = 1
	TagAfter Tag = 2
)

// Plan is a disbursement strategy.
//
// Payments returns the payout of every reachable branch. Verify holds iff each
// of those payouts equals the authorized amount.
type Plan interface {
	Tag() Tag
	Payments() []Payment
	Verify(tokens int64) bool

	encode(w *codec.Writer)
}

// payoutsMatch is the rule every variant verifies by: at least one branch,
// and no branch paying more or less than tokens.
func payoutsMatch(payments []Payment, tokens int64) bool {
	if len(payments) == 0 {
		return false
	}
	for _, p := range payments {
		if p.Tokens != tokens {
			return false
		}
	}
	return true
}

type planDecoder func(r *codec.Reader) (Plan, error)

var planDecoders = map[Tag]planDecoder{}

// registerPlan wires a variant's decoder. Variants call it from init.
func registerPlan(tag Tag, dec planDecoder) {
	if _, exists := planDecoders[tag]; exists {
		panic(fmt.Sprintf("plan: tag %d registered twice", tag))
	}
	planDecoders[tag] = dec
}

// EncodeTo appends the canonical encoding of p to w.
func EncodeTo(w *codec.Writer, p Plan) {
	w.Uint32(uint32(p.Tag()))
	p.encode(w)
}

// Encode returns the canonical encoding of p.
func Encode(p Plan) []byte {
	w := codec.NewWriter(128)
	EncodeTo(w, p)
	return w.Bytes()
}

// DecodeFrom reads one plan from r.
func DecodeFrom(r *codec.Reader) (Plan, error) {
	tag, err := r.Uint32("plan tag")
	if err != nil {
		return nil, err
	}
	dec, ok := planDecoders[Tag(tag)]
	if !ok {
		return nil, codec.NewError(codec.KindEncoding, codec.RuleUnknownTag, fmt.Sprintf("unknown plan tag %d", tag))
	}
	return dec(r)
}

// Decode parses a complete plan encoding.
func Decode(b []byte) (Plan, error) {
	r := codec.NewReader(b)
	p, err := DecodeFrom(r)
	if err != nil {
		return nil, err
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return p, nil
}
