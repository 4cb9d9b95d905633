package transaction

import (
	"github.com/ipfs/go-cid"

	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/codec"
	"xdao.co/ledgertx/plan"
)

// Marshal returns the canonical encoding:
// From || Plan || Tokens || LastID || Sig.
func (tr *Transaction) Marshal() []byte {
	w := codec.NewWriter(256)
	tr.MarshalTo(w)
	return w.Bytes()
}

// MarshalTo appends the canonical encoding to w.
func (tr *Transaction) MarshalTo(w *codec.Writer) {
	w.Fixed(tr.From[:])
	tr.writeSignData(w)
	w.Fixed(tr.Sig[:])
}

// Unmarshal parses a complete transaction encoding. Truncated input, unknown
// tags, non-canonical timestamps and trailing bytes are rejected, so a
// successful Unmarshal followed by Marshal reproduces b exactly.
func Unmarshal(b []byte) (*Transaction, error) {
	r := codec.NewReader(b)
	tr, err := UnmarshalFrom(r)
	if err != nil {
		return nil, err
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return tr, nil
}

// UnmarshalFrom reads one transaction from r.
func UnmarshalFrom(r *codec.Reader) (*Transaction, error) {
	tr := &Transaction{}
	if err := r.Fixed(tr.From[:], "from"); err != nil {
		return nil, err
	}
	p, err := plan.DecodeFrom(r)
	if err != nil {
		return nil, err
	}
	tr.Plan = p
	if tr.Tokens, err = r.Int64("tokens"); err != nil {
		return nil, err
	}
	if err := r.Fixed(tr.LastID[:], "last_id"); err != nil {
		return nil, err
	}
	if err := r.Fixed(tr.Sig[:], "signature"); err != nil {
		return nil, err
	}
	return tr, nil
}

// ID returns the content identifier of the canonical encoding.
func (tr *Transaction) ID() (cid.Cid, error) {
	return cidutil.Sum(tr.Marshal())
}
