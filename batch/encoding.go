package batch

import (
	"fmt"
	"math"

	"xdao.co/ledgertx/codec"
	"xdao.co/ledgertx/transaction"
)

// MaxBatchSize caps the declared transaction count accepted by Decode.
const MaxBatchSize = 1 << 20

// Encode frames txs for transport: a u32 count, then each transaction's
// encoding prefixed by its u32 length.
func Encode(txs []*transaction.Transaction) []byte {
	w := codec.NewWriter(4 + len(txs)*256)
	w.Uint32(uint32(len(txs)))
	for _, tr := range txs {
		b := tr.Marshal()
		w.Uint32(uint32(len(b)))
		w.Fixed(b)
	}
	return w.Bytes()
}

// Decode parses a batch produced by Encode. Every frame must hold exactly one
// transaction and no bytes may follow the last frame.
func Decode(b []byte) ([]*transaction.Transaction, error) {
	r := codec.NewReader(b)
	n, err := r.Uint32("batch count")
	if err != nil {
		return nil, err
	}
	// Each frame needs at least its length prefix.
	if n > MaxBatchSize || uint64(n)*4 > uint64(r.Remaining()) {
		return nil, codec.NewError(codec.KindEncoding, codec.RuleLengthOverflow, fmt.Sprintf("batch count %d exceeds input", n))
	}
	txs := make([]*transaction.Transaction, 0, n)
	for i := uint32(0); i < n; i++ {
		size, err := r.Uint32("frame length")
		if err != nil {
			return nil, err
		}
		if uint64(size) > uint64(r.Remaining()) || size > math.MaxInt32 {
			return nil, codec.NewError(codec.KindEncoding, codec.RuleTruncated, fmt.Sprintf("frame %d: length %d exceeds input", i, size))
		}
		frame := make([]byte, size)
		if err := r.Fixed(frame, "frame"); err != nil {
			return nil, err
		}
		tr, err := transaction.Unmarshal(frame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		txs = append(txs, tr)
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return txs, nil
}
