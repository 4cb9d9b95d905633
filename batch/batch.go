// Package batch verifies sets of transactions in parallel.
//
// Each predicate is an AND-reduction over an immutable slice: the batch is
// accepted iff every transaction passes. The result never depends on the
// worker count or on scheduling. An empty batch is accepted.
package batch

import (
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"xdao.co/ledgertx/transaction"
)

// Pass names one verification pass, for observers.
type Pass string

const (
	PassSignatures Pass = "signatures"
	PassPlans      Pass = "plans"
)

// Observer receives the outcome of each completed pass.
//
// Implementations must be safe for concurrent use.
type Observer interface {
	ObservePass(pass Pass, size int, ok bool, elapsed time.Duration)
}

// Verifier runs batch predicates on a bounded pool of goroutines.
//
// The zero value is ready to use.
type Verifier struct {
	// Workers bounds concurrency. Zero or negative means GOMAXPROCS.
	Workers int

	// EarlyExit skips remaining work once any transaction fails.
	// It changes latency only, never the result.
	EarlyExit bool

	Observer Observer
}

func (v *Verifier) workers() int {
	if v.Workers > 0 {
		return v.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// all reports whether pred holds for every element of txs.
func (v *Verifier) all(pass Pass, txs []*transaction.Transaction, pred func(*transaction.Transaction) bool) bool {
	start := time.Now()

	var failed atomic.Bool
	var g errgroup.Group
	g.SetLimit(v.workers())
	for _, tr := range txs {
		if v.EarlyExit && failed.Load() {
			break
		}
		g.Go(func() error {
			if v.EarlyExit && failed.Load() {
				return nil
			}
			if !pred(tr) {
				failed.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	ok := !failed.Load()
	if v.Observer != nil {
		v.Observer.ObservePass(pass, len(txs), ok, time.Since(start))
	}
	return ok
}

// VerifySignatures reports whether every transaction carries a valid
// signature from its sender. True for an empty batch.
func (v *Verifier) VerifySignatures(txs []*transaction.Transaction) bool {
	return v.all(PassSignatures, txs, (*transaction.Transaction).VerifySignature)
}

// VerifyPlans reports whether every transaction's plan pays out exactly its
// tokens on every branch. True for an empty batch.
func (v *Verifier) VerifyPlans(txs []*transaction.Transaction) bool {
	return v.all(PassPlans, txs, (*transaction.Transaction).VerifyPlan)
}

// VerifyTransactions runs the signature pass and, only if it succeeds, the
// plan pass. True for an empty batch.
func (v *Verifier) VerifyTransactions(txs []*transaction.Transaction) bool {
	return v.VerifySignatures(txs) && v.VerifyPlans(txs)
}

// Failures returns the ascending indices of transactions whose Verify is
// false. EarlyExit does not apply; every transaction is checked.
func (v *Verifier) Failures(txs []*transaction.Transaction) []int {
	bad := make([]bool, len(txs))
	var g errgroup.Group
	g.SetLimit(v.workers())
	for i, tr := range txs {
		g.Go(func() error {
			bad[i] = !tr.Verify()
			return nil
		})
	}
	_ = g.Wait()

	var out []int
	for i, b := range bad {
		if b {
			out = append(out, i)
		}
	}
	return out
}

var defaultVerifier Verifier

// VerifySignatures runs Verifier.VerifySignatures with default settings.
func VerifySignatures(txs []*transaction.Transaction) bool {
	return defaultVerifier.VerifySignatures(txs)
}

// VerifyPlans runs Verifier.VerifyPlans with default settings.
func VerifyPlans(txs []*transaction.Transaction) bool {
	return defaultVerifier.VerifyPlans(txs)
}

// VerifyTransactions runs Verifier.VerifyTransactions with default settings.
func VerifyTransactions(txs []*transaction.Transaction) bool {
	return defaultVerifier.VerifyTransactions(txs)
}
