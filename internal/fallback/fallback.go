// Package fallback implements a typed chain of responsibility for factories
// that may reject a parameter set. When a factory reports a missing required
// parameter the registry retries with the factory's declared fallback, using
// the same parameters, until one succeeds or the chain ends.
//
// Chains are followed without cycle detection: registering a -> b -> a and
// building with parameters neither accepts never returns.
package fallback

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrMissingParam marks a factory rejection that allows falling back.
	ErrMissingParam = errors.New("fallback: missing required parameter")
	// ErrUnknownKind is returned when a kind is not registered.
	ErrUnknownKind = errors.New("fallback: unknown kind")
)

// MissingParamError reports which parameter a factory needed.
type MissingParamError struct {
	Factory string
	Param   string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("%s: missing required parameter %q", e.Factory, e.Param)
}

// Is matches ErrMissingParam.
func (e *MissingParamError) Is(target error) bool {
	return target == ErrMissingParam
}

// Missing is shorthand for building a MissingParamError.
func Missing(factory, param string) error {
	return &MissingParamError{Factory: factory, Param: param}
}

// ExhaustedError is returned when every factory in a chain rejected the
// parameters. It unwraps to the last rejection.
type ExhaustedError struct {
	Chain []string
	Last  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fallback chain %s exhausted: %v", strings.Join(e.Chain, " -> "), e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Factory builds a T from parameters P.
type Factory[P, T any] func(P) (T, error)

type entry[P, T any] struct {
	factory  Factory[P, T]
	fallback string
}

// Registry maps kind names to factories and their fallbacks. It is safe for
// concurrent use.
type Registry[P, T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[P, T]
}

// NewRegistry creates an empty registry.
func NewRegistry[P, T any]() *Registry[P, T] {
	return &Registry[P, T]{entries: make(map[string]entry[P, T])}
}

// Register binds kind to factory. fallback names the kind tried next when the
// factory reports a missing parameter; empty ends the chain. Registering an
// existing kind replaces it.
func (r *Registry[P, T]) Register(kind string, factory Factory[P, T], fallback string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[kind] = entry[P, T]{factory: factory, fallback: fallback}
}

// Has reports whether kind is registered.
func (r *Registry[P, T]) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[kind]
	return ok
}

// Fallback returns the kind tried after kind.
func (r *Registry[P, T]) Fallback(kind string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[kind]
	return e.fallback, ok
}

// Kinds lists registered kinds in lexical order.
func (r *Registry[P, T]) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build runs the chain starting at kind. Errors other than a missing
// parameter stop the chain and are returned as is.
func (r *Registry[P, T]) Build(kind string, params P) (T, error) {
	var zero T
	var chain []string
	for {
		r.mu.RLock()
		e, ok := r.entries[kind]
		r.mu.RUnlock()
		if !ok {
			return zero, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
		chain = append(chain, kind)
		out, err := e.factory(params)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrMissingParam) {
			return zero, err
		}
		if e.fallback == "" {
			return zero, &ExhaustedError{Chain: chain, Last: err}
		}
		kind = e.fallback
	}
}
