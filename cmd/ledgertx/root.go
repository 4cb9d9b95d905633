package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"xdao.co/ledgertx/keys"
)

var (
	validLogLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	validLogLevelsStr = strings.Join(slices.Sorted(maps.Keys(validLogLevels)), "|")
)

// app is the state shared by every command of one invocation.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "ledgertx",
		Short: "Signed, conditionally-payable ledger transactions",
		Long: `ledgertx creates signed transactions whose spending plan pays out exactly
the authorized tokens, verifies batches of them in parallel, and serves
verification and storage over gRPC.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringP("log-level", "l", "info", fmt.Sprintf("set log level (%s)", validLogLevelsStr))
	root.PersistentFlags().String("config", "", "config file (default ./config.yaml or ~/.ledgertx/config.yaml)")
	root.PersistentFlags().String("keys-dir", "", "key store directory (default ~/.ledgertx/keys)")

	root.AddCommand(a.newKeyCmd(), a.newTxCmd(), a.newServeCmd(), a.newArchiveCmd(), newVersionCmd())
	return root
}

// setup binds flags, environment and config file into a.v and installs the
// JSON logger.
func (a *app) setup(cmd *cobra.Command) error {
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.InheritedFlags()} {
		if err := a.v.BindPFlags(fs); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}
	a.v.SetEnvPrefix("ledgertx")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if file := a.v.GetString("config"); file != "" {
		a.v.SetConfigFile(file)
	} else {
		a.v.SetConfigName("config")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME/.ledgertx")
	}
	configErr := a.v.ReadInConfig()

	if err := a.setLogLevel(a.v.GetString("log-level")); err != nil {
		return err
	}

	var notFound viper.ConfigFileNotFoundError
	switch {
	case configErr == nil:
		slog.Debug("Using config file", "file", a.v.ConfigFileUsed())
	case errors.As(configErr, &notFound):
		slog.Debug("No config file found")
	default:
		return fmt.Errorf("read config: %w", configErr)
	}
	return nil
}

func (a *app) setLogLevel(logLevel string) error {
	level, exists := validLogLevels[logLevel]
	if !exists {
		return fmt.Errorf("invalid log level: %s. Valid log levels are: %s", logLevel, validLogLevelsStr)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(a.errOut, &slog.HandlerOptions{Level: level})))
	return nil
}

func (a *app) keyStore() (*keys.KeyStore, error) {
	return keys.CreateKeyStore(a.v.GetString("keys-dir"))
}
