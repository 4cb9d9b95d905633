package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"xdao.co/ledgertx/batch"
	"xdao.co/ledgertx/internal/config"
	"xdao.co/ledgertx/internal/metrics"
	"xdao.co/ledgertx/storage/casregistry"
	"xdao.co/ledgertx/txstore"
	"xdao.co/ledgertx/verifyrpc"
)

func (a *app) newServeCmd() *cobra.Command {
	var listBackends bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC verifier",
		Long: `Serve batch verification and transaction submission over gRPC.
Accepted transactions are stored in the configured CAS backends; listing
several backends replicates every write to all of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listBackends {
				for _, b := range casregistry.List() {
					fmt.Fprintf(a.out, "%s\t%s\n", b.Name, b.Description)
				}
				return nil
			}
			cfg := config.LoadServeConfig(a.v)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid serve configuration: %w", err)
			}
			slog.Debug("Serve configuration", "config", cfg)
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("listen", config.DefaultListen, "gRPC listen address")
	cmd.Flags().String("metrics-listen", config.DefaultMetricsListen, "Prometheus /metrics address (empty disables)")
	cmd.Flags().StringSlice("backend", []string{config.DefaultBackend}, "CAS backend(s); several replicate writes")
	cmd.Flags().String("data-dir", config.DefaultDataDir(), "backend data directory")
	cmd.Flags().Int("workers", 0, "verification goroutines (default GOMAXPROCS)")
	cmd.Flags().Bool("early-exit", false, "stop verifying a batch once any transaction fails")
	cmd.Flags().BoolVar(&listBackends, "list-backends", false, "list available backends and exit")
	return cmd
}

// serve runs until ctx is done, then drains in-flight RPCs.
func serve(ctx context.Context, cfg config.ServeConfig) error {
	cas, closeFn, err := casregistry.OpenAll(cfg.Backends, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if closeFn != nil {
		defer func() {
			if err := closeFn(); err != nil {
				slog.Error("Failed to close storage", "error", err)
			}
		}()
	}

	m := metrics.New()
	if cfg.MetricsListen != "" {
		msrv, err := m.Serve(cfg.MetricsListen)
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = msrv.Shutdown(sctx)
		}()
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}

	logger := slog.Default()
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		verifyrpc.LoggingInterceptor(logger),
		m.UnaryServerInterceptor(),
	))
	verifyrpc.RegisterVerifierServer(srv, &verifyrpc.Server{
		Verifier: &batch.Verifier{Workers: cfg.Workers, EarlyExit: cfg.EarlyExit, Observer: m},
		Store:    txstore.New(cas, logger),
		Logger:   logger,
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			srv.GracefulStop()
		case <-done:
		}
	}()

	slog.Info("Verifier listening", "addr", lis.Addr().String(), "backends", cfg.Backends, "data_dir", cfg.DataDir)
	return srv.Serve(lis)
}
