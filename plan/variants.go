package plan

import (
	"time"

	"xdao.co/ledgertx/codec"
	"xdao.co/ledgertx/keys"
)

func init() {
	registerPlan(TagPay, func(r *codec.Reader) (Plan, error) {
		p, err := decodePayment(r)
		if err != nil {
			return nil, err
		}
		return Pay{Payment: p}, nil
	})
	registerPlan(TagRace, func(r *codec.Reader) (Plan, error) {
		a, err := decodeBranch(r)
		if err != nil {
			return nil, err
		}
		b, err := decodeBranch(r)
		if err != nil {
			return nil, err
		}
		return Race{A: a, B: b}, nil
	})
	registerPlan(TagAfter, func(r *codec.Reader) (Plan, error) {
		b, err := decodeBranch(r)
		if err != nil {
			return nil, err
		}
		return After{Branch: b}, nil
	})
}

// Pay is a single unconditional payment.
type Pay struct {
	Payment
}

func NewPay(p Payment) Pay { return Pay{Payment: p} }

func (Pay) Tag() Tag { return TagPay }

func (p Pay) Payments() []Payment { return []Payment{p.Payment} }

func (p Pay) Verify(tokens int64) bool { return payoutsMatch(p.Payments(), tokens) }

func (p Pay) encode(w *codec.Writer) { p.Payment.encode(w) }

// Race holds two mutually exclusive branches; whichever condition is satisfied
// first decides the payout.
type Race struct {
	A, B Branch
}

func NewRace(a, b Branch) Race { return Race{A: a, B: b} }

func (Race) Tag() Tag { return TagRace }

func (r Race) Payments() []Payment { return []Payment{r.A.Payment, r.B.Payment} }

func (r Race) Verify(tokens int64) bool { return payoutsMatch(r.Payments(), tokens) }

func (r Race) encode(w *codec.Writer) {
	r.A.encode(w)
	r.B.encode(w)
}

// After pays once its single condition is satisfied.
type After struct {
	Branch
}

func NewAfter(b Branch) After { return After{Branch: b} }

func (After) Tag() Tag { return TagAfter }

func (a After) Payments() []Payment { return []Payment{a.Payment} }

func (a After) Verify(tokens int64) bool { return payoutsMatch(a.Payments(), tokens) }

func (a After) encode(w *codec.Writer) { a.Branch.encode(w) }

// Postdated builds the time-locked transfer: to may claim tokens once when has
// passed, and sender may reclaim them by signing before that.
func Postdated(sender, to keys.PublicKey, when time.Time, tokens int64) Race {
	return NewRace(
		Branch{Condition: NewTimestamp(when), Payment: Payment{Tokens: tokens, To: to}},
		Branch{Condition: Signature{Key: sender}, Payment: Payment{Tokens: tokens, To: sender}},
	)
}
