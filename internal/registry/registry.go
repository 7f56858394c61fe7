// Package registry resolves a HandlerReference to an executable Handler,
// with a process-wide, read-mostly cache keyed by the full reference
// (including instance payload). It is grounded on the teacher's
// internal/worker.HandlerRegistry, generalized from a static map of
// pre-built handlers to reflection-based resolve-and-construct: a
// TypeResolver maps a symbolic name to a type, and the first resolution
// of each distinct reference gets its own no-arg-constructed instance,
// which later resolutions of that same reference reuse from the cache.
package registry

import (
	"encoding/json"
	"errors"
	"reflect"
	"sync"

	"github.com/amitbasuri/taskrunner/internal/models"
)

// ErrHandlerUnresolved is never returned to callers of Resolve: a
// resolution failure yields (nil, false), not an error, so callers can
// record "Missing or invalid handler" and treat the attempt as
// unsuccessful. It exists for documentation/testing convenience only.
var ErrHandlerUnresolved = errors.New("registry: handler unresolved")

// Handler is any value exposing Perform() bool. Optional lifecycle hooks
// are detected separately, structurally, by the hooks package.
type Handler interface {
	Perform() bool
}

// TypeResolver maps a qualified handler name to a reflect.Type so it can
// be instantiated with no-arg construction.
type TypeResolver interface {
	FindTypeByName(qualifiedName string) (reflect.Type, bool)
}

// StaticResolver is a TypeResolver backed by an explicit registration map.
// Register handler zero values by qualified name at process startup
// (typically "namespace.entrypoint").
type StaticResolver struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewStaticResolver returns an empty StaticResolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{types: make(map[string]reflect.Type)}
}

// Register associates qualifiedName with the type of zero. zero must be a
// pointer (e.g. &MyHandler{}) since handlers are constructed via
// reflect.New and operated on through pointer receivers.
func (r *StaticResolver) Register(qualifiedName string, zero any) {
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[qualifiedName] = t
}

// FindTypeByName implements TypeResolver.
func (r *StaticResolver) FindTypeByName(qualifiedName string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[qualifiedName]
	return t, ok
}

// Registry resolves HandlerReferences to Handlers, caching successful
// resolutions by HandlerReference.CacheKey() for the process lifetime.
// Insertion is idempotent under concurrent first-use: duplicate racing
// inserts are harmless since the constructed values are equivalent.
type Registry struct {
	resolver TypeResolver
	cache    sync.Map // string -> Handler
}

// New returns a Registry backed by the given TypeResolver.
func New(resolver TypeResolver) *Registry {
	return &Registry{resolver: resolver}
}

// Resolve maps ref to a Handler, or ok=false if it can't. Resolution
// failure (unknown type, or a type that doesn't expose Perform() bool)
// returns ok=false, never an error.
func (r *Registry) Resolve(ref models.HandlerReference) (Handler, bool) {
	key := ref.CacheKey()
	if cached, ok := r.cache.Load(key); ok {
		return cached.(Handler), true
	}

	t, ok := r.resolver.FindTypeByName(ref.QualifiedName())
	if !ok {
		return nil, false
	}

	instance := reflect.New(t).Interface()

	if ref.InstancePayload != "" {
		// Best-effort state injection: a handler that isn't JSON-shaped
		// simply keeps its zero value. Unmarshal errors are not fatal to
		// resolution; only "unknown type" or "no Perform capability"
		// counts as unresolved.
		_ = json.Unmarshal([]byte(ref.InstancePayload), instance)
	}

	handler, ok := instance.(Handler)
	if !ok {
		return nil, false
	}

	actual, _ := r.cache.LoadOrStore(key, handler)
	return actual.(Handler), true
}
