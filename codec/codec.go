// Package codec implements the canonical binary layout shared by plans and
// transactions, together with the structured error taxonomy.
//
// Integers are little-endian and fixed width. Strings carry a u64 length
// prefix. Fixed-size values (keys, hashes, signatures) are written raw.
// The layout matches a bincode-style fixed-int encoding so that signers and
// verifiers written in other languages derive identical bytes.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Writer appends canonical encodings to an internal buffer.
type Writer struct {
	buf []byte
}

func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) Uint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) Uint64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

// Fixed writes b without a length prefix.
func (w *Writer) Fixed(b []byte) { w.buf = append(w.buf, b...) }

// String writes a u64 length followed by the UTF-8 bytes of s.
func (w *Writer) String(s string) {
	w.Uint64(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// Bytes returns the accumulated encoding. The caller must not retain the
// Writer after taking ownership of the slice.
func (w *Writer) Bytes() []byte { return w.buf }

// Reader consumes a canonical encoding. Every method fails with a structured
// *Error when the input is truncated.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int, what string) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, NewError(KindEncoding, RuleTruncated, fmt.Sprintf("truncated input reading %s at offset %d", what, r.off))
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Uint32(what string) (uint32, error) {
	b, err := r.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) Uint64(what string) (uint64, error) {
	b, err := r.take(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) Int64(what string) (int64, error) {
	v, err := r.Uint64(what)
	return int64(v), err
}

// Fixed fills dst from the input.
func (r *Reader) Fixed(dst []byte, what string) error {
	b, err := r.take(len(dst), what)
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// String reads a u64-length-prefixed string.
func (r *Reader) String(what string) (string, error) {
	n, err := r.Uint64(what + " length")
	if err != nil {
		return "", err
	}
	if n > uint64(r.Remaining()) {
		return "", NewError(KindEncoding, RuleLengthOverflow, fmt.Sprintf("%s length %d exceeds remaining input", what, n))
	}
	b, err := r.take(int(n), what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Finish fails when unread bytes remain.
func (r *Reader) Finish() error {
	if n := r.Remaining(); n != 0 {
		return NewError(KindEncoding, RuleTrailingBytes, fmt.Sprintf("%d trailing bytes after value", n))
	}
	return nil
}
