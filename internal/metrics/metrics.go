// Package metrics exports verifier and RPC activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"xdao.co/ledgertx/batch"
)

const namespace = "ledgertx"

// Metrics holds the collectors. It implements batch.Observer.
type Metrics struct {
	registry *prometheus.Registry

	passes       *prometheus.CounterVec
	transactions *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	rpcs         *prometheus.CounterVec
}

var _ batch.Observer = (*Metrics)(nil)

// New registers all collectors on a fresh registry, plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_passes_total",
			Help:      "Batch verification passes by pass and result.",
		}, []string{"pass", "result"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_transactions_total",
			Help:      "Transactions submitted to a verification pass.",
		}, []string{"pass"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verify_pass_duration_seconds",
			Help:      "Wall time of one batch verification pass.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"pass"}),
		rpcs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Unary RPCs handled, by method and status code.",
		}, []string{"method", "code"}),
	}
	m.registry.MustRegister(
		m.passes,
		m.transactions,
		m.passDuration,
		m.rpcs,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObservePass(pass batch.Pass, size int, ok bool, elapsed time.Duration) {
	result := "accepted"
	if !ok {
		result = "rejected"
	}
	m.passes.WithLabelValues(string(pass), result).Inc()
	m.transactions.WithLabelValues(string(pass)).Add(float64(size))
	m.passDuration.WithLabelValues(string(pass)).Observe(elapsed.Seconds())
}

// UnaryServerInterceptor counts every unary call by method and status code.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		m.rpcs.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// Server is the running /metrics endpoint.
type Server struct {
	*http.Server
	lis net.Listener
}

// ListenAddr is the bound address, useful when addr used port 0.
func (s *Server) ListenAddr() string { return s.lis.Addr().String() }

// Serve binds addr and serves /metrics in the background. Bind errors are
// returned directly; the caller owns Shutdown.
func (m *Metrics) Serve(addr string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry}))

	srv := &Server{
		Server: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		lis:    lis,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server stopped", "error", err)
		}
	}()
	slog.Info("Serving metrics", "addr", srv.ListenAddr())
	return srv, nil
}
