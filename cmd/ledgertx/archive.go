package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"

	"xdao.co/ledgertx/internal/config"
	"xdao.co/ledgertx/storage/casregistry"
	"xdao.co/ledgertx/txstore"
)

func (a *app) newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Move stored transactions in and out as tar archives",
	}
	cmd.PersistentFlags().StringSlice("backend", []string{config.DefaultBackend}, "CAS backend(s) holding the transactions")
	cmd.PersistentFlags().String("data-dir", config.DefaultDataDir(), "backend data directory")
	cmd.AddCommand(a.newArchiveExportCmd(), a.newArchiveImportCmd())
	return cmd
}

// openStore opens the backends named by --backend under --data-dir.
func (a *app) openStore() (*txstore.Store, func() error, error) {
	cfg := config.LoadStoreConfig(a.v)
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid storage configuration: %w", err)
	}
	cas, closeFn, err := casregistry.OpenAll(cfg.Backends, cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return txstore.New(cas, slog.Default()), closeFn, nil
}

func (a *app) newArchiveExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <cid>...",
		Short: "Write stored transactions to a tar archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]cid.Cid, 0, len(args))
			for _, s := range args {
				id, err := cid.Decode(s)
				if err != nil {
					return fmt.Errorf("invalid cid %q: %w", s, err)
				}
				ids = append(ids, id)
			}
			store, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := store.Export(cmd.Context(), f, ids); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "archive file to write")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) newArchiveImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Verify and store every transaction in an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ids, err := store.Import(cmd.Context(), f)
			for _, id := range ids {
				fmt.Fprintln(a.out, id)
			}
			return err
		},
	}
}
