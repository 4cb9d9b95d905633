package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"xdao.co/ledgertx/batch"
	"xdao.co/ledgertx/hash"
	"xdao.co/ledgertx/internal/config"
	"xdao.co/ledgertx/keys"
	"xdao.co/ledgertx/transaction"
	"xdao.co/ledgertx/verifyrpc"
)

// errRejected is returned by "tx verify" when the batch fails, after the
// report has been printed.
var errRejected = errors.New("batch rejected")

func (a *app) newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Build, inspect and verify transactions",
	}
	cmd.AddCommand(a.newTxNewCmd(), a.newTxVerifyCmd(), a.newTxIDCmd(), a.newTxSubmitCmd())
	return cmd
}

func (a *app) newTxNewCmd() *cobra.Command {
	var (
		signer, role, to string
		tokens           int64
		lastIDHex        string
		after            string
		outPath          string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Build and sign a transaction",
		Long: `Build a transaction paying --tokens to --to and sign it with a key from the
key store. With --after, the plan becomes a race: the recipient may claim
after the given time, and the signer may reclaim by signing first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := keys.ParsePublicKey(to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}
			var lastID hash.Hash
			if lastIDHex != "" {
				if lastID, err = hash.Parse(lastIDHex); err != nil {
					return fmt.Errorf("invalid --last-id: %w", err)
				}
			}
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			kp, err := ks.LoadKeyPair(signer, role)
			if err != nil {
				return fmt.Errorf("load signer: %w", err)
			}

			var tr *transaction.Transaction
			if after != "" {
				when, err := time.Parse(time.RFC3339Nano, after)
				if err != nil {
					return fmt.Errorf("invalid --after: %w", err)
				}
				tr = transaction.NewOnDate(kp, recipient, when, tokens, lastID)
			} else {
				tr = transaction.New(kp, recipient, tokens, lastID)
			}

			encoded := tr.Marshal()
			if outPath == "" {
				fmt.Fprintln(a.out, hex.EncodeToString(encoded))
				return nil
			}
			if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
				return err
			}
			id, err := tr.ID()
			if err != nil {
				return err
			}
			slog.Debug("Wrote transaction", "file", outPath, "cid", id.String())
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&signer, "signer", "", "key store name of the sender")
	cmd.Flags().StringVar(&role, "role", "", "sign with the signer's derived role key")
	cmd.Flags().StringVar(&to, "to", "", "recipient public key (ed25519:<base64>)")
	cmd.Flags().Int64Var(&tokens, "tokens", 0, "tokens to transfer")
	cmd.Flags().StringVar(&lastIDHex, "last-id", "", "freshness marker as 64 hex chars (default all zero)")
	cmd.Flags().StringVar(&after, "after", "", "RFC 3339 time after which the recipient may claim")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the encoded transaction here instead of hex to stdout")
	_ = cmd.MarkFlagRequired("signer")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("tokens")
	return cmd
}

// readTx loads a transaction file written by "tx new", either raw or as the
// hex text it prints without --out.
func readTx(path string) (*transaction.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tr, err := transaction.Unmarshal(data)
	if err == nil {
		return tr, nil
	}
	raw, herr := hex.DecodeString(string(bytes.TrimSpace(data)))
	if herr != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tr, err = transaction.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}

func (a *app) newTxVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file>...",
		Short: "Verify a batch of transaction files",
		Long: `Verify the given transactions as one batch. Prints OK when every
transaction is valid; otherwise prints REJECTED followed by each failing file
and the rule it broke, and exits non-zero.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadVerifyConfig(a.v)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid verify configuration: %w", err)
			}

			txs := make([]*transaction.Transaction, 0, len(args))
			for _, path := range args {
				tr, err := readTx(path)
				if err != nil {
					return err
				}
				txs = append(txs, tr)
			}

			v := &batch.Verifier{Workers: cfg.Workers, EarlyExit: cfg.EarlyExit}
			if v.VerifyTransactions(txs) {
				fmt.Fprintf(a.out, "OK (%d transactions)\n", len(txs))
				return nil
			}
			fmt.Fprintln(a.out, "REJECTED")
			for _, i := range v.Failures(txs) {
				fmt.Fprintf(a.out, "  %s: %v\n", args[i], txs[i].Check())
			}
			return errRejected
		},
	}
	cmd.Flags().Int("workers", 0, "verification goroutines (default GOMAXPROCS)")
	cmd.Flags().Bool("early-exit", false, "stop verifying once any transaction fails")
	return cmd
}

func (a *app) newTxIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id <file>",
		Short: "Print the content identifier of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := readTx(args[0])
			if err != nil {
				return err
			}
			id, err := tr.ID()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
}

func (a *app) newTxSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Submit a transaction to a running verifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := readTx(args[0])
			if err != nil {
				return err
			}
			client, err := verifyrpc.Dial(a.v.GetString("server"), verifyrpc.DialOptions{Timeout: a.v.GetDuration("timeout")})
			if err != nil {
				return fmt.Errorf("dial: %w", err)
			}
			defer client.Close()
			client.Timeout = a.v.GetDuration("timeout")

			id, err := client.Submit(cmd.Context(), tr)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, id)
			return nil
		},
	}
	cmd.Flags().String("server", config.DefaultListen, "verifier gRPC address")
	cmd.Flags().Duration("timeout", 10*time.Second, "per-request timeout")
	return cmd
}
