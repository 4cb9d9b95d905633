package plan

import (
	"fmt"
	"time"

	"xdao.co/ledgertx/codec"
	"xdao.co/ledgertx/keys"
)

// ConditionTag is the encoded discriminant of a Condition variant.
type ConditionTag uint32

const (
	TagTimestamp ConditionTag = 0
	TagSignature ConditionTag = 1
)

// Condition gates a branch of a plan.
type Condition interface {
	ConditionTag() ConditionTag

	encode(w *codec.Writer)
}

// Timestamp is satisfied once the ledger's trusted clock reaches Time.
type Timestamp struct {
	Time time.Time
}

// NewTimestamp normalizes t to UTC without a monotonic reading, so that
// decoded and constructed values compare equal.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t.UTC().Round(0)} }

func (Timestamp) ConditionTag() ConditionTag { return TagTimestamp }

func (c Timestamp) encode(w *codec.Writer) { w.String(FormatTime(c.Time)) }

// Signature is satisfied when Key presents a signature.
type Signature struct {
	Key keys.PublicKey
}

func (Signature) ConditionTag() ConditionTag { return TagSignature }

func (c Signature) encode(w *codec.Writer) { w.Fixed(c.Key[:]) }

func encodeCondition(w *codec.Writer, c Condition) {
	w.Uint32(uint32(c.ConditionTag()))
	c.encode(w)
}

func decodeCondition(r *codec.Reader) (Condition, error) {
	tag, err := r.Uint32("condition tag")
	if err != nil {
		return nil, err
	}
	switch ConditionTag(tag) {
	case TagTimestamp:
		s, err := r.String("timestamp")
		if err != nil {
			return nil, err
		}
		t, err := ParseTime(s)
		if err != nil {
			return nil, err
		}
		return Timestamp{Time: t}, nil
	case TagSignature:
		var c Signature
		if err := r.Fixed(c.Key[:], "signature condition key"); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, codec.NewError(codec.KindEncoding, codec.RuleUnknownTag, fmt.Sprintf("unknown condition tag %d", tag))
	}
}

// FormatTime renders t as RFC 3339 in UTC with a "Z" suffix. The fraction is
// omitted when zero, otherwise printed with 3, 6 or 9 digits, whichever is
// the shortest exact form.
func FormatTime(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ns := t.Nanosecond()
	switch {
	case ns == 0:
		return base + "Z"
	case ns%1_000_000 == 0:
		return fmt.Sprintf("%s.%03dZ", base, ns/1_000_000)
	case ns%1_000 == 0:
		return fmt.Sprintf("%s.%06dZ", base, ns/1_000)
	default:
		return fmt.Sprintf("%s.%09dZ", base, ns)
	}
}

// ParseTime accepts only the canonical text produced by FormatTime.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, codec.WrapError(codec.KindEncoding, codec.RuleNonCanonicalTimestamp, "invalid timestamp", err)
	}
	t = t.UTC()
	if FormatTime(t) != s {
		return time.Time{}, codec.NewError(codec.KindEncoding, codec.RuleNonCanonicalTimestamp, fmt.Sprintf("non-canonical timestamp %q", s))
	}
	return t, nil
}
