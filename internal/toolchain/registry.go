package toolchain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnknownCompiler is returned by New for a name no backend registered.
var ErrUnknownCompiler = errors.New("unknown compiler")

// Options are the settings common to all backends.
type Options struct {
	Logger  zerolog.Logger
	Env     map[string]string
	Timeout time.Duration
}

// Runner returns a Runner configured from o that reports hint when the
// executable is missing.
func (o Options) Runner(hint string) *Runner {
	return &Runner{
		Env:     o.Env,
		Timeout: o.Timeout,
		Hint:    hint,
		Logger:  o.Logger,
	}
}

// Constructor builds a backend. Backends resolve their Handle inside the
// constructor, once.
type Constructor func(opts Options) (Toolchain, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register makes a backend available under name. It panics if name is
// already taken, so backends register from init.
func Register(name string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if c == nil {
		panic("toolchain: Register constructor is nil")
	}
	if _, dup := registry[name]; dup {
		panic("toolchain: Register called twice for " + name)
	}
	registry[name] = c
}

// New constructs the backend registered under name.
func New(name string, opts Options) (Toolchain, error) {
	registryMu.RLock()
	c, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownCompiler, name, strings.Join(Names(), ", "))
	}
	return c(opts)
}

// Names returns the registered backend names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
