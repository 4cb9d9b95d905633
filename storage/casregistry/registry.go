// Package casregistry lets CAS backends register themselves by name so a
// binary can select one from configuration.
//
// Backends register in init():
//
//	casregistry.MustRegister(casregistry.Backend{ ... })
//
// and are linked into a binary by importing the backend package, usually as a
// blank import.
package casregistry

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"xdao.co/ledgertx/storage"
)

// Options carries the settings a backend needs to open.
type Options struct {
	// Dir is the backend's data location. File-backed stores create their
	// file inside it.
	Dir string
}

// Backend opens one storage.CAS implementation.
type Backend struct {
	Name        string
	Description string

	// Open constructs the CAS. The returned close function may be nil.
	Open func(opts Options) (storage.CAS, func() error, error)
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
)

// Register adds a backend. Names are unique.
func Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("casregistry: backend name is required")
	}
	if b.Open == nil {
		return fmt.Errorf("casregistry: backend %q missing Open", b.Name)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := backends[b.Name]; exists {
		return fmt.Errorf("casregistry: backend %q already registered", b.Name)
	}
	backends[b.Name] = b
	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns the registered backends sorted by name.
func List() []Backend {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Backend, 0, len(backends))
	for _, b := range backends {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the registered backend names, sorted.
func Names() []string {
	bs := List()
	n := make([]string, 0, len(bs))
	for _, b := range bs {
		n = append(n, b.Name)
	}
	return n
}

// Open opens the named backend.
func Open(name string, opts Options) (storage.CAS, func() error, error) {
	mu.RLock()
	b, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("casregistry: unknown backend %q (registered: %s)", name, strings.Join(Names(), ", "))
	}
	return b.Open(opts)
}

// OpenAll opens every named backend under its own subdirectory of dir and
// combines them. A single name returns that backend unwrapped; several names
// return a storage.ReplicatingCAS in the given order.
func OpenAll(names []string, dir string) (storage.CAS, func() error, error) {
	if len(names) == 0 {
		return nil, nil, storage.ErrNoBackends
	}
	if len(names) == 1 {
		return Open(names[0], Options{Dir: dir})
	}

	var (
		rep    storage.ReplicatingCAS
		closes []func() error
	)
	closeAll := func() error {
		var first error
		for i := len(closes) - 1; i >= 0; i-- {
			if err := closes[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			_ = closeAll()
			return nil, nil, fmt.Errorf("casregistry: backend %q listed twice", name)
		}
		seen[name] = true

		cas, closeFn, err := Open(name, Options{Dir: filepath.Join(dir, name)})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		if closeFn != nil {
			closes = append(closes, closeFn)
		}
		rep.Backends = append(rep.Backends, storage.NamedCAS{Name: name, CAS: cas})
	}
	return rep, closeAll, nil
}
