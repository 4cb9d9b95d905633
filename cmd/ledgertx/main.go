// Command ledgertx builds, signs, verifies and serves ledger transactions.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "xdao.co/ledgertx/storage/boltdb"
	_ "xdao.co/ledgertx/storage/leveldb"
	_ "xdao.co/ledgertx/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("An error occurred", "error", err)
		stop()
		os.Exit(1)
	}
}
