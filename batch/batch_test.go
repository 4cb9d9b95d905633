package batch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/ledgertx/hash"
	"xdao.co/ledgertx/keys"
	"xdao.co/ledgertx/plan"
	"xdao.co/ledgertx/transaction"
)

func keypair(t *testing.T, b byte) *keys.KeyPair {
	t.Helper()
	seed := make([]byte, keys.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	kp, err := keys.NewKeyPairFromSeed(seed)
	require.NoError(t, err)
	return kp
}

func validBatch(t *testing.T, n int) []*transaction.Transaction {
	t.Helper()
	alice := keypair(t, 0xA1)
	bob := keypair(t, 0xB2)
	txs := make([]*transaction.Transaction, n)
	for i := range txs {
		lastID := hash.Sum([]byte{byte(i), byte(i >> 8)})
		if i%3 == 0 {
			txs[i] = transaction.NewOnDate(alice, bob.Pubkey(), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), int64(i+1), lastID)
		} else {
			txs[i] = transaction.New(alice, bob.Pubkey(), int64(i+1), lastID)
		}
	}
	return txs
}

func TestEmptyBatchIsAccepted(t *testing.T) {
	assert.True(t, VerifySignatures(nil))
	assert.True(t, VerifyPlans(nil))
	assert.True(t, VerifyTransactions(nil))
	assert.True(t, VerifyTransactions([]*transaction.Transaction{}))
}

func TestAllValid(t *testing.T) {
	txs := validBatch(t, 100)
	assert.True(t, VerifySignatures(txs))
	assert.True(t, VerifyPlans(txs))
	assert.True(t, VerifyTransactions(txs))
}

func TestOneBadSignatureRejectsBatch(t *testing.T) {
	txs := validBatch(t, 5)
	txs[3].Tokens = 1_000_000

	assert.False(t, VerifySignatures(txs))
	assert.False(t, VerifyTransactions(txs))
}

func TestOneBadPlanRejectsBatch(t *testing.T) {
	alice := keypair(t, 0xA1)
	bob := keypair(t, 0xB2)
	txs := validBatch(t, 5)

	// Signed correctly, but the plan overspends.
	bad := &transaction.Transaction{
		From:   alice.Pubkey(),
		Plan:   plan.NewPay(plan.Payment{Tokens: 2, To: bob.Pubkey()}),
		Tokens: 1,
	}
	bad.Sign(alice)
	txs[2] = bad

	assert.True(t, VerifySignatures(txs))
	assert.False(t, VerifyPlans(txs))
	assert.False(t, VerifyTransactions(txs))
}

func TestCompositionLaw(t *testing.T) {
	batches := [][]*transaction.Transaction{
		nil,
		validBatch(t, 7),
	}
	sigBad := validBatch(t, 7)
	sigBad[6].LastID = hash.Sum([]byte("tampered"))
	batches = append(batches, sigBad)

	for _, txs := range batches {
		want := VerifySignatures(txs) && VerifyPlans(txs)
		assert.Equal(t, want, VerifyTransactions(txs))

		perTx := true
		for _, tr := range txs {
			perTx = perTx && tr.Verify()
		}
		assert.Equal(t, perTx, VerifyTransactions(txs))
	}
}

func TestDeterministicAcrossWorkerCounts(t *testing.T) {
	good := validBatch(t, 64)
	bad := validBatch(t, 64)
	bad[63].Sig = keys.Signature{}

	for _, workers := range []int{0, 1, 2, 7, 64, 128} {
		for _, early := range []bool{false, true} {
			v := &Verifier{Workers: workers, EarlyExit: early}
			assert.True(t, v.VerifyTransactions(good), "workers=%d early=%v", workers, early)
			assert.False(t, v.VerifyTransactions(bad), "workers=%d early=%v", workers, early)
		}
	}
}

func TestFailures(t *testing.T) {
	txs := validBatch(t, 10)
	txs[1].Tokens++
	txs[8].Sig = keys.Signature{}
	pay := plan.NewPay(plan.Payment{Tokens: 99, To: txs[4].From})
	txs[4].Plan = pay

	v := &Verifier{Workers: 3}
	assert.Equal(t, []int{1, 4, 8}, v.Failures(txs))
	assert.Empty(t, v.Failures(validBatch(t, 4)))
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []Pass
	oks   []bool
}

func (o *recordingObserver) ObservePass(pass Pass, size int, ok bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, pass)
	o.oks = append(o.oks, ok)
}

func TestPlanPassSkippedAfterSignatureFailure(t *testing.T) {
	obs := &recordingObserver{}
	v := &Verifier{Observer: obs}

	txs := validBatch(t, 3)
	require.True(t, v.VerifyTransactions(txs))
	assert.Equal(t, []Pass{PassSignatures, PassPlans}, obs.calls)

	obs.calls, obs.oks = nil, nil
	txs[0].Tokens = 7777
	require.False(t, v.VerifyTransactions(txs))
	assert.Equal(t, []Pass{PassSignatures}, obs.calls)
	assert.Equal(t, []bool{false}, obs.oks)
}
