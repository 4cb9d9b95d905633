// Package transaction implements signed, conditionally-payable ledger
// transactions and the canonical sign/verify protocol.
//
// A signature covers exactly (Plan, Tokens, LastID), in that order. From is
// excluded because the signature itself proves origin; Sig is excluded because
// it cannot cover itself. Any later change to Plan, Tokens or LastID
// invalidates the signature until the transaction is signed again.
package transaction

import (
	"time"

	"xdao.co/ledgertx/codec"
	"xdao.co/ledgertx/hash"
	"xdao.co/ledgertx/keys"
	"xdao.co/ledgertx/plan"
)

// Transaction moves Tokens from From according to Plan.
//
// LastID is the freshness marker. Its recency and uniqueness are enforced by
// the ledger, not here.
type Transaction struct {
	From   keys.PublicKey
	Plan   plan.Plan
	Tokens int64
	LastID hash.Hash
	Sig    keys.Signature
}

// New builds and signs a transaction paying tokens to to.
func New(from *keys.KeyPair, to keys.PublicKey, tokens int64, lastID hash.Hash) *Transaction {
	tr := &Transaction{
		From:   from.Pubkey(),
		Plan:   plan.NewPay(plan.Payment{Tokens: tokens, To: to}),
		Tokens: tokens,
		LastID: lastID,
	}
	tr.Sign(from)
	return tr
}

// NewOnDate builds and signs a postdated transaction: to may claim after when,
// and the sender may reclaim the tokens by signing before then.
func NewOnDate(from *keys.KeyPair, to keys.PublicKey, when time.Time, tokens int64, lastID hash.Hash) *Transaction {
	sender := from.Pubkey()
	tr := &Transaction{
		From:   sender,
		Plan:   plan.Postdated(sender, to, when, tokens),
		Tokens: tokens,
		LastID: lastID,
	}
	tr.Sign(from)
	return tr
}

// SignData returns the canonical bytes a signature covers:
// Plan || Tokens (i64 LE) || LastID.
func (tr *Transaction) SignData() []byte {
	w := codec.NewWriter(160)
	tr.writeSignData(w)
	return w.Bytes()
}

func (tr *Transaction) writeSignData(w *codec.Writer) {
	plan.EncodeTo(w, tr.Plan)
	w.Int64(tr.Tokens)
	w.Fixed(tr.LastID[:])
}

// Sign recomputes the sign data from the current fields and overwrites Sig.
//
// Sign does not require kp to match From, so a relay may sign on another
// key's behalf; the result simply fails Verify unless kp is From's key.
// Use SignAs to refuse mismatched signers.
func (tr *Transaction) Sign(kp *keys.KeyPair) {
	tr.Sig = kp.Sign(tr.SignData())
}

// SignAs is Sign, but fails when kp's public key is not From.
func (tr *Transaction) SignAs(kp *keys.KeyPair) error {
	if kp.Pubkey() != tr.From {
		return codec.NewError(codec.KindSignature, codec.RuleSignerMismatch, "signer does not match From")
	}
	tr.Sign(kp)
	return nil
}

// VerifySignature reports whether Sig is From's signature over SignData.
func (tr *Transaction) VerifySignature() bool {
	if tr.Plan == nil {
		return false
	}
	return tr.Sig.Verify(tr.From, tr.SignData())
}

// VerifyPlan reports whether every branch of Plan pays out exactly Tokens.
func (tr *Transaction) VerifyPlan() bool {
	return tr.Plan != nil && tr.Plan.Verify(tr.Tokens)
}

// Verify reports whether both the signature and the plan are valid.
func (tr *Transaction) Verify() bool {
	return tr.VerifySignature() && tr.VerifyPlan()
}

// Check is Verify with a structured reason. It returns nil iff Verify is true.
func (tr *Transaction) Check() error {
	if tr.Plan == nil {
		return codec.NewError(codec.KindPlan, codec.RuleMissingPlan, "transaction has no plan")
	}
	if !tr.VerifySignature() {
		return codec.NewError(codec.KindSignature, codec.RuleSignatureInvalid, "signature invalid")
	}
	if !tr.VerifyPlan() {
		return codec.NewError(codec.KindPlan, codec.RulePayoutMismatch, "plan does not pay out exactly the authorized tokens on every branch")
	}
	return nil
}
