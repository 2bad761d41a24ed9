package rules

import (
	"sort"
	"sync"
)

// Unbounded marks an open arity bound.
const Unbounded = -1

// EvalFunc reduces a node's arguments against a context.
type EvalFunc func(n *Node, ctx any) (any, error)

// Kind is a named, arity-bounded evaluation rule. Kinds are immutable once
// created.
type Kind struct {
	name    string
	minArgs int
	maxArgs int
	eval    EvalFunc
}

// NewKind creates a kind. An empty name creates an abstract kind that is
// never registered; a nil eval makes every evaluation fail with
// NotImplementedError.
func NewKind(name string, minArgs, maxArgs int, eval EvalFunc) *Kind {
	return &Kind{
		name:    name,
		minArgs: minArgs,
		maxArgs: maxArgs,
		eval:    eval,
	}
}

// Name returns the registered name of the kind.
func (k *Kind) Name() string { return k.name }

// MinArgs returns the inclusive lower bound, or Unbounded.
func (k *Kind) MinArgs() int { return k.minArgs }

// MaxArgs returns the inclusive upper bound, or Unbounded.
func (k *Kind) MaxArgs() int { return k.maxArgs }

// checkArity validates an argument count against the kind's bounds.
func (k *Kind) checkArity(n int) error {
	if k.minArgs != Unbounded && n < k.minArgs {
		return &ArityError{Kind: k.name, Bound: "min", Expected: k.minArgs, Actual: n}
	}
	if k.maxArgs != Unbounded && n > k.maxArgs {
		return &ArityError{Kind: k.name, Bound: "max", Expected: k.maxArgs, Actual: n}
	}
	return nil
}

// Registry maps node names to kinds.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[string]*Kind),
	}
}

// Register adds a kind to the registry.
// Kinds without a name are ignored. If a kind with the same name exists,
// it is overwritten.
func (r *Registry) Register(kind *Kind) {
	if kind == nil || kind.name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind.name] = kind
}

// Lookup returns the kind registered under name.
func (r *Registry) Lookup(name string) (*Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kind, ok := r.kinds[name]
	return kind, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in kinds. Decoding helpers consult it.
var DefaultRegistry = NewRegistry()

func init() {
	for _, kind := range builtinKinds {
		DefaultRegistry.Register(kind)
	}
}

// Register adds a kind to DefaultRegistry. Call it during program
// initialization, before any representation is decoded.
func Register(kind *Kind) {
	DefaultRegistry.Register(kind)
}

// Lookup returns the kind registered in DefaultRegistry under name.
func Lookup(name string) (*Kind, bool) {
	return DefaultRegistry.Lookup(name)
}
