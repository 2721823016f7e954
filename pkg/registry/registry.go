// Package registry maps payout processor types to the Processor that handles them.
//
// A Registry is built once at start up and never written to again, so it can be shared
// between goroutines without locking. Retired types are never registered: they resolve
// exactly like identifiers that never existed, and callers that need to tell the two
// apart consult payout.ProcessorType.IsRetired.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/mannion007/payouts/pkg/payout"
)

// ErrInvalidRegistration is returned by New when a processor cannot be registered
var ErrInvalidRegistration = errors.New("invalid processor registration")

// Registry resolves active processor types to their Processor
type Registry struct {
	processors map[payout.ProcessorType]payout.Processor
	active     []payout.ProcessorType
}

// New builds a Registry from the given processors. The map is copied.
func New(processors map[payout.ProcessorType]payout.Processor) (*Registry, error) {
	r := Registry{
		processors: make(map[payout.ProcessorType]payout.Processor, len(processors)),
		active:     make([]payout.ProcessorType, 0, len(processors)),
	}

	for t, proc := range processors {
		switch {
		case !t.IsKnown():
			return nil, fmt.Errorf("%w: unknown processor type %q", ErrInvalidRegistration, t)
		case t.IsRetired():
			return nil, fmt.Errorf("%w: processor type %q is retired", ErrInvalidRegistration, t)
		case isNil(proc):
			return nil, fmt.Errorf("%w: nil processor for %q", ErrInvalidRegistration, t)
		}

		r.processors[t] = proc
		r.active = append(r.active, t)
	}

	sort.Slice(r.active, func(i, j int) bool {
		return payout.Less(r.active[i], r.active[j])
	})

	return &r, nil
}

// isNil also catches typed nils, i.e. a (*StripeProcessor)(nil) stored in the interface
func isNil(proc payout.Processor) bool {
	if proc == nil {
		return true
	}
	v := reflect.ValueOf(proc)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// ActiveTypes lists every processor type that has a handler, in declaration order
func (r *Registry) ActiveTypes() []payout.ProcessorType {
	types := make([]payout.ProcessorType, len(r.active))
	copy(types, r.active)
	return types
}

// Resolve returns the Processor for t. Retired and unknown types report false.
func (r *Registry) Resolve(t payout.ProcessorType) (payout.Processor, bool) {
	proc, ok := r.processors[t]
	return proc, ok
}
