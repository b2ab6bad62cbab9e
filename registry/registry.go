// Package registry provides the process-wide catalog of named wrapper
// processors resolved during schema compilation. Registration happens before
// engine construction; the snapshot observed at compile time is frozen into
// each plan so that mid-run re-registration cannot perturb an in-flight
// conversion.
package registry

import (
	"log/slog"
	"sync"

	"github.com/c360/relgraph/factory"
)

// EntryKind identifies the wrapper family of a registry entry
type EntryKind int

const (
	// KindAttributePre is an attribute pre-processor
	KindAttributePre EntryKind = iota
	// KindAttributePost is an attribute post-processor
	KindAttributePost
	// KindSubgraphPre is a subgraph pre-processor
	KindSubgraphPre
	// KindSubgraphPost is a subgraph post-processor
	KindSubgraphPost
	// KindWrapper is a full wrapper constructor
	KindWrapper
)

// String returns the string representation of EntryKind
func (k EntryKind) String() string {
	switch k {
	case KindAttributePre:
		return "attribute preprocessor"
	case KindAttributePost:
		return "attribute postprocessor"
	case KindSubgraphPre:
		return "subgraph preprocessor"
	case KindSubgraphPost:
		return "subgraph postprocessor"
	case KindWrapper:
		return "wrapper"
	default:
		return "unknown"
	}
}

// Entry is one registered wrapper binding. Exactly one of the function
// fields is set, matching Kind.
type Entry struct {
	Kind EntryKind

	AttributePre  factory.AttributePreprocessor
	AttributePost factory.AttributePostprocessor
	SubgraphPre   factory.SubgraphPreprocessor
	SubgraphPost  factory.SubgraphPostprocessor
	Wrapper       factory.WrapperConstructor
}

// Registry is a name-keyed catalog of wrapper bindings
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	logger  *slog.Logger
}

// New creates an empty registry
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]Entry),
		logger:  logger,
	}
}

// register stores an entry, replacing and warning on duplicate names
func (r *Registry) register(name string, entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, exists := r.entries[name]; exists {
		r.logger.Warn("replacing registered wrapper",
			"name", name,
			"previous_kind", previous.Kind.String(),
			"new_kind", entry.Kind.String())
	}
	r.entries[name] = entry
}

// RegisterAttributePreprocessor binds a named attribute pre-processor
func (r *Registry) RegisterAttributePreprocessor(name string, fn factory.AttributePreprocessor) {
	r.register(name, Entry{Kind: KindAttributePre, AttributePre: fn})
}

// RegisterAttributePostprocessor binds a named attribute post-processor
func (r *Registry) RegisterAttributePostprocessor(name string, fn factory.AttributePostprocessor) {
	r.register(name, Entry{Kind: KindAttributePost, AttributePost: fn})
}

// RegisterSubgraphPreprocessor binds a named subgraph pre-processor
func (r *Registry) RegisterSubgraphPreprocessor(name string, fn factory.SubgraphPreprocessor) {
	r.register(name, Entry{Kind: KindSubgraphPre, SubgraphPre: fn})
}

// RegisterSubgraphPostprocessor binds a named subgraph post-processor
func (r *Registry) RegisterSubgraphPostprocessor(name string, fn factory.SubgraphPostprocessor) {
	r.register(name, Entry{Kind: KindSubgraphPost, SubgraphPost: fn})
}

// RegisterWrapper binds a named full wrapper constructor
func (r *Registry) RegisterWrapper(name string, fn factory.WrapperConstructor) {
	r.register(name, Entry{Kind: KindWrapper, Wrapper: fn})
}

// Snapshot returns a point-in-time copy of the catalog. Compiled plans hold
// a snapshot, never the live registry.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make(map[string]Entry, len(r.entries))
	for name, entry := range r.entries {
		entries[name] = entry
	}
	return Snapshot{entries: entries}
}

// Snapshot is an immutable view of a registry
type Snapshot struct {
	entries map[string]Entry
}

// Lookup returns the entry bound to name
func (s Snapshot) Lookup(name string) (Entry, bool) {
	entry, ok := s.entries[name]
	return entry, ok
}

// defaultRegistry is the process-wide catalog used by the package-level
// registration functions
var defaultRegistry = New(nil)

// Default returns the process-wide registry
func Default() *Registry {
	return defaultRegistry
}

// RegisterAttributePreprocessor binds a named attribute pre-processor in the
// process-wide registry
func RegisterAttributePreprocessor(name string, fn factory.AttributePreprocessor) {
	defaultRegistry.RegisterAttributePreprocessor(name, fn)
}

// RegisterAttributePostprocessor binds a named attribute post-processor in
// the process-wide registry
func RegisterAttributePostprocessor(name string, fn factory.AttributePostprocessor) {
	defaultRegistry.RegisterAttributePostprocessor(name, fn)
}

// RegisterSubgraphPreprocessor binds a named subgraph pre-processor in the
// process-wide registry
func RegisterSubgraphPreprocessor(name string, fn factory.SubgraphPreprocessor) {
	defaultRegistry.RegisterSubgraphPreprocessor(name, fn)
}

// RegisterSubgraphPostprocessor binds a named subgraph post-processor in the
// process-wide registry
func RegisterSubgraphPostprocessor(name string, fn factory.SubgraphPostprocessor) {
	defaultRegistry.RegisterSubgraphPostprocessor(name, fn)
}

// RegisterWrapper binds a named full wrapper constructor in the process-wide
// registry
func RegisterWrapper(name string, fn factory.WrapperConstructor) {
	defaultRegistry.RegisterWrapper(name, fn)
}
