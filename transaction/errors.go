package transaction

import "xdao.co/ledgertx/codec"

// Error is the structured error returned by Check and Unmarshal.
type Error = codec.Error

type Kind = codec.Kind

const (
	KindEncoding  = codec.KindEncoding
	KindSignature = codec.KindSignature
	KindPlan      = codec.KindPlan
)

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool { return codec.IsKind(err, kind) }

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string { return codec.RuleID(err) }
