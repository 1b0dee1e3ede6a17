package probe

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/trellisfw/trellis-monitor/pkg/conn"
)

// Request is the input of one kind runner invocation.
type Request struct {
	Name   string
	Params Params
	Conn   conn.Conn
	Now    time.Time
}

// Reader returns the request connection as a path reader.
func (r Request) Reader() (conn.Reader, error) {
	return conn.AsReader(r.Conn)
}

// Runner evaluates one probe. Expected failures are returned as a failure
// Result; a returned error is reported as an uncaught exception.
type Runner func(ctx context.Context, req Request) (Result, error)

// Kinds maps kind names to runners. It is safe for concurrent use.
type Kinds struct {
	mu      sync.RWMutex
	runners map[string]Runner
}

func NewKinds() *Kinds {
	return &Kinds{runners: make(map[string]Runner)}
}

// DefaultKinds returns a registry with every built-in kind.
func DefaultKinds() *Kinds {
	k := NewKinds()
	k.MustRegister("pathTest", PathTest)
	k.MustRegister("maxAge", MaxAge)
	k.MustRegister("relativeAge", RelativeAge)
	k.MustRegister("revAge", RevAge)
	k.MustRegister("staleKsuidKeys", StaleKsuidKeys)
	k.MustRegister("countKeys", CountKeys)
	k.MustRegister("ping", Ping)
	return k
}

// Register adds a kind. Registering a name twice is an error.
func (k *Kinds) Register(name string, runner Runner) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, exists := k.runners[name]; exists {
		return errors.Errorf("probe kind %q is already registered", name)
	}
	k.runners[name] = runner
	return nil
}

func (k *Kinds) MustRegister(name string, runner Runner) {
	if err := k.Register(name, runner); err != nil {
		panic(err)
	}
}

func (k *Kinds) Lookup(name string) (Runner, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	r, ok := k.runners[name]
	return r, ok
}

// Names returns the registered kind names in lexical order.
func (k *Kinds) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()

	names := make([]string, 0, len(k.runners))
	for name := range k.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
