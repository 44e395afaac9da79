// Package registry resolves textual references of the form "module:name" to
// values registered at start-up. It is how configuration names callbacks
// without the configuration having to import them.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/evbroker/pkg/reflectx"
)

var (
	// ErrInvalidRef is returned for references not shaped like "module:name".
	ErrInvalidRef = errors.New("invalid reference")
	// ErrRefNotFound is returned when nothing is registered under a reference.
	ErrRefNotFound = errors.New("reference not found")
	// ErrDuplicateRef is returned when a reference is registered twice.
	ErrDuplicateRef = errors.New("reference already registered")
)

type Registry[T any] interface {
	Register(ref string, value T) error
	Resolve(ref string) (T, error)
	RefOf(value T) (string, error)
	Refs() []string
	Del(ref string)
}

type registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

// ParseRef splits a "module:name" reference. The name part may contain dots
// (e.g. "demo:Printer.Print"); the module part may not be empty.
func ParseRef(ref string) (module, name string, err error) {
	module, name, ok := strings.Cut(strings.TrimSpace(ref), ":")
	if !ok || module == "" || name == "" || strings.Contains(name, ":") {
		return "", "", fmt.Errorf("%w: %q, expected module:name", ErrInvalidRef, ref)
	}
	return module, name, nil
}

func (r *registry[T]) Register(ref string, value T) error {
	module, name, err := ParseRef(ref)
	if err != nil {
		return err
	}
	key := module + ":" + name
	if _, loaded := r.values.GetOrSet(key, value); loaded {
		return fmt.Errorf("%w: %s", ErrDuplicateRef, key)
	}
	return nil
}

func (r *registry[T]) Resolve(ref string) (T, error) {
	var zero T
	module, name, err := ParseRef(ref)
	if err != nil {
		return zero, err
	}
	v, ok := r.values.Get(module + ":" + name)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	}
	return v, nil
}

// RefOf is the reverse of Resolve. Functions are matched by code pointer,
// everything else by deep equality. When several references point at the
// same value the lexically smallest one is returned.
func (r *registry[T]) RefOf(value T) (string, error) {
	var matches []string
	r.values.ForEach(func(key string, candidate T) bool {
		if sameValue(value, candidate) {
			matches = append(matches, key)
		}
		return true
	})
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no reference for %s", ErrRefNotFound, describe(value))
	}
	return slices.Min(matches), nil
}

func (r *registry[T]) Refs() []string {
	refs := make([]string, 0, r.values.Len())
	r.values.ForEach(func(key string, _ T) bool {
		refs = append(refs, key)
		return true
	})
	slices.Sort(refs)
	return refs
}

func (r *registry[T]) Del(ref string) {
	r.values.Del(strings.TrimSpace(ref))
}

func sameValue(a, b any) bool {
	if reflectx.IsFunction(a) || reflectx.IsFunction(b) {
		return reflectx.SameFunction(a, b)
	}
	return reflect.DeepEqual(a, b)
}

func describe(v any) string {
	if name := reflectx.FunctionName(v); name != "" {
		return name
	}
	return fmt.Sprintf("%T", v)
}
