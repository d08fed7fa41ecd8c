// Package catalog assembles the application's action registry from the
// domain packages.
package catalog

import (
	"carehub/internal/action"
	"carehub/internal/calendar"
	"carehub/internal/facility"
	"carehub/internal/messaging"
	"carehub/internal/support"
)

// Deps are the stores the domain actions write to.
type Deps struct {
	Threads    messaging.Store
	Facilities facility.Store
	Events     calendar.Store
	Tickets    support.Store
}

// InMemoryDeps returns process-local stores for every domain.
func InMemoryDeps() Deps {
	return Deps{
		Threads:    messaging.NewInMemoryStore(),
		Facilities: facility.NewInMemoryStore(),
		Events:     calendar.NewInMemoryStore(),
		Tickets:    support.NewInMemoryStore(),
	}
}

// New builds the registry. It fails if two domains claim the same action id.
func New(deps Deps) (*action.Registry, error) {
	var descs []action.Descriptor
	descs = append(descs, messaging.NewActions(deps.Threads).Descriptors()...)
	descs = append(descs, facility.NewActions(deps.Facilities).Descriptors()...)
	descs = append(descs, calendar.NewActions(deps.Events).Descriptors()...)
	descs = append(descs, support.NewActions(deps.Tickets).Descriptors()...)
	return action.NewRegistry(descs...)
}
