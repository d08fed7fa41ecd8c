package audit

import "context"

// OutboxEntry is an event waiting to be relayed to one destination.
type OutboxEntry struct {
	ID    string
	Event Event
}

// Outbox is a store that queues, in the same write as the event itself, one
// pending delivery per configured destination. Entries are returned in
// append order and stay pending until marked relayed.
type Outbox interface {
	Sink
	Pending(ctx context.Context, destination string, limit int) ([]OutboxEntry, error)
	MarkRelayed(ctx context.Context, destination string, entryIDs ...string) error
}
