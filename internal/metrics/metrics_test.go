package metrics_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/ledgertx/batch"
	"xdao.co/ledgertx/internal/metrics"
	"xdao.co/ledgertx/transaction"
)

func TestObserverCountsPasses(t *testing.T) {
	m := metrics.New()
	v := &batch.Verifier{Observer: m}

	require.True(t, v.VerifyTransactions(nil))
	require.False(t, v.VerifyTransactions([]*transaction.Transaction{{}}))

	expected := `
# HELP ledgertx_verify_passes_total Batch verification passes by pass and result.
# TYPE ledgertx_verify_passes_total counter
ledgertx_verify_passes_total{pass="plans",result="accepted"} 1
ledgertx_verify_passes_total{pass="signatures",result="accepted"} 1
ledgertx_verify_passes_total{pass="signatures",result="rejected"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ledgertx_verify_passes_total"))

	expected = `
# HELP ledgertx_verify_transactions_total Transactions submitted to a verification pass.
# TYPE ledgertx_verify_transactions_total counter
ledgertx_verify_transactions_total{pass="plans"} 0
ledgertx_verify_transactions_total{pass="signatures"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ledgertx_verify_transactions_total"))
}

func TestInterceptorCountsRPCs(t *testing.T) {
	m := metrics.New()
	icpt := m.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/ledgertx.verifyrpc.v1.Verifier/Submit"}

	_, err := icpt(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, nil
	})
	require.NoError(t, err)
	_, err = icpt(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
		return nil, status.Error(codes.FailedPrecondition, "rejected")
	})
	require.Error(t, err)

	n, err := testutil.GatherAndCount(m.Registry(), "ledgertx_rpc_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestServe(t *testing.T) {
	t.Run("ServesMetrics", func(t *testing.T) {
		m := metrics.New()
		srv, err := m.Serve("127.0.0.1:0")
		require.NoError(t, err)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			require.NoError(t, srv.Shutdown(ctx))
		}()
		m.ObservePass(batch.PassSignatures, 3, true, time.Millisecond)

		resp, err := http.Get("http://" + srv.ListenAddr() + "/metrics")
		require.NoError(t, err, "Failed to connect to metrics server")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `ledgertx_verify_passes_total{pass="signatures",result="accepted"} 1`)
	})

	t.Run("WhenInvalidAddress", func(t *testing.T) {
		_, err := metrics.New().Serve("invalid-address😆")
		require.Error(t, err)
	})

	t.Run("WhenInvalidPort", func(t *testing.T) {
		_, err := metrics.New().Serve("localhost:99999")
		require.Error(t, err)
	})
}
