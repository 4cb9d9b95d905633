package codec

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindEncoding  Kind = "Encoding"
	KindSignature Kind = "Signature"
	KindPlan      Kind = "Plan"
	KindInternal  Kind = "Internal"
)

// Stable rule identifiers.
const (
	RuleTruncated             = "LTX-ENC-001"
	RuleUnknownTag            = "LTX-ENC-002"
	RuleTrailingBytes         = "LTX-ENC-003"
	RuleNonCanonicalTimestamp = "LTX-ENC-004"
	RuleLengthOverflow        = "LTX-ENC-005"

	RuleSignatureInvalid = "LTX-SIG-001"
	RuleSignerMismatch   = "LTX-SIG-002"

	RulePayoutMismatch = "LTX-PLAN-001"
	RuleMissingPlan    = "LTX-PLAN-002"
)

// Error is the library's structured error type.
//
// RuleID names the violated invariant (e.g. LTX-ENC-001, LTX-PLAN-001).
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func WrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
