package action

import (
	"errors"
	"fmt"
	"slices"

	id "carehub/pkg/domain"
)

// Registry is the immutable table of actions. It is built once at startup
// and injected into dispatchers.
type Registry struct {
	actions map[id.ActionID]Descriptor
}

// NewRegistry validates and indexes descs. Registering two actions under one
// id is an error; there is no last-write-wins.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{actions: make(map[id.ActionID]Descriptor, len(descs))}
	var errs []error
	for _, d := range descs {
		if _, err := id.ParseActionID(string(d.ID)); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := id.ParsePermission(string(d.RequiredPermission)); err != nil {
			errs = append(errs, fmt.Errorf("action %s: %w", d.ID, err))
			continue
		}
		if d.handler == nil {
			errs = append(errs, fmt.Errorf("action %s has no handler", d.ID))
			continue
		}
		if _, dup := r.actions[d.ID]; dup {
			errs = append(errs, fmt.Errorf("action %s registered more than once", d.ID))
			continue
		}
		r.actions[d.ID] = d
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("build action registry: %w", errors.Join(errs...))
	}
	return r, nil
}

// MustRegistry is NewRegistry for process startup; it panics on error.
func MustRegistry(descs ...Descriptor) *Registry {
	r, err := NewRegistry(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor for actionID.
func (r *Registry) Lookup(actionID id.ActionID) (Descriptor, bool) {
	if r == nil {
		return Descriptor{}, false
	}
	d, ok := r.actions[actionID]
	return d, ok
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.actions)
}

// Descriptors returns all entries sorted by id.
func (r *Registry) Descriptors() []Descriptor {
	if r == nil {
		return nil
	}
	out := make([]Descriptor, 0, len(r.actions))
	for _, d := range r.actions {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Descriptor) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}
