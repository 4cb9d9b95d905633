// Package config loads typed command configuration from viper.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultListen        = "127.0.0.1:7788"
	DefaultMetricsListen = "127.0.0.1:2112"
	DefaultBackend       = "localfs"
)

// DefaultWorkers is the batch verifier pool size used when none is set.
func DefaultWorkers() int { return runtime.GOMAXPROCS(0) }

// DefaultDataDir is ~/.ledgertx/data.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ledgertx", "data")
	}
	return filepath.Join(home, ".ledgertx", "data")
}

type ServeConfig struct {
	Listen        string
	MetricsListen string
	Backends      []string
	DataDir       string
	Workers       int
	EarlyExit     bool
}

func (c ServeConfig) Validate() error {
	if err := checkHostPort("listen", c.Listen); err != nil {
		return err
	}
	// Metrics are optional.
	if c.MetricsListen != "" {
		if err := checkHostPort("metrics-listen", c.MetricsListen); err != nil {
			return err
		}
		if c.MetricsListen == c.Listen {
			return fmt.Errorf("--listen and --metrics-listen must differ")
		}
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one --backend is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("--data-dir is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("--workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

func checkHostPort(flag, addr string) error {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid --%s %q: %w", flag, addr, err)
	}
	return nil
}

// LoadServeConfig reads the serve settings bound into v from flags,
// LEDGERTX_* variables and the config file.
func LoadServeConfig(v *viper.Viper) ServeConfig {
	return ServeConfig{
		Listen:        v.GetString("listen"),
		MetricsListen: v.GetString("metrics-listen"),
		Backends:      splitList(v.GetStringSlice("backend")),
		DataDir:       v.GetString("data-dir"),
		Workers:       v.GetInt("workers"),
		EarlyExit:     v.GetBool("early-exit"),
	}
}

// StoreConfig selects the CAS backends for commands that only read or write
// stored transactions.
type StoreConfig struct {
	Backends []string
	DataDir  string
}

func (c StoreConfig) Validate() error {
	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one --backend is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("--data-dir is required")
	}
	return nil
}

func LoadStoreConfig(v *viper.Viper) StoreConfig {
	return StoreConfig{
		Backends: splitList(v.GetStringSlice("backend")),
		DataDir:  v.GetString("data-dir"),
	}
}

type VerifyConfig struct {
	Workers   int
	EarlyExit bool
}

func (c VerifyConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("--workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

func LoadVerifyConfig(v *viper.Viper) VerifyConfig {
	return VerifyConfig{
		Workers:   v.GetInt("workers"),
		EarlyExit: v.GetBool("early-exit"),
	}
}

// splitList accepts both repeated flags and comma-separated values, the
// latter being what LEDGERTX_BACKEND=a,b produces.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
