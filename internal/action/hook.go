package action

import (
	"context"
	"fmt"
	"sync"

	"carehub/internal/claims"
	id "carehub/pkg/domain"
	audit "carehub/pkg/platform/audit"
)

// State is the observable status of a Hook.
type State struct {
	Loading bool
	Err     error
}

// Hook is the interactive entry point: it resolves the caller itself and
// exposes loading/error state for the screen that owns it.
//
// State is shared by every call made through one Hook. When calls overlap,
// Loading and Err reflect whichever call's lifecycle step ran last; the first
// call to finish sets Loading back to false even if another is still running.
type Hook struct {
	dispatcher *Dispatcher
	resolver   claims.Resolver
	audits     audit.Factory

	mu        sync.Mutex
	state     State
	observers map[int]func(State)
	nextObs   int
}

// NewHook creates a Hook that resolves callers with resolver and binds audit
// recorders from audits.
func NewHook(dispatcher *Dispatcher, resolver claims.Resolver, audits audit.Factory) *Hook {
	return &Hook{
		dispatcher: dispatcher,
		resolver:   resolver,
		audits:     audits,
		observers:  make(map[int]func(State)),
	}
}

// Execute runs actionID for the resolved caller.
//
// Besides the fixed unauthenticated, unknown-action and unauthorized errors,
// Execute returns resolver failures wrapped as "resolve caller: ...". Those
// happen before any lookup or audit record and leave the state untouched.
func (h *Hook) Execute(ctx context.Context, actionID string, input any) (any, error) {
	identity, err := h.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	if identity == nil || identity.UID.IsNil() {
		return nil, ErrUnauthenticated
	}

	recorder := h.audits.For(identity.UID, identity.Claims.FacilityID)
	return h.dispatcher.run(ctx, invocation{
		actionID:    id.ActionID(actionID),
		input:       input,
		userID:      identity.UID,
		permissions: identity.Claims.UserPermissions,
		recorder:    recorder,
		// Interactive callers never report a trusted IP.
		context: func() *Context { return NewContext(identity, recorder) },
		onStart: func() {
			h.update(func(s *State) {
				s.Loading = true
				s.Err = nil
			})
		},
		onFailure: func(err error) {
			h.update(func(s *State) { s.Err = err })
		},
		onFinish: func() {
			h.update(func(s *State) { s.Loading = false })
		},
	})
}

// Loading reports whether a call is in flight.
func (h *Hook) Loading() bool {
	return h.State().Loading
}

// Err returns the error of the most recent failed call, cleared when the
// next authorized call starts.
func (h *Hook) Err() error {
	return h.State().Err
}

// State returns a snapshot of the hook state.
func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (h *Hook) Subscribe(fn func(State)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := h.nextObs
	h.nextObs++
	h.observers[key] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.observers, key)
	}
}

func (h *Hook) update(mutate func(*State)) {
	h.mu.Lock()
	mutate(&h.state)
	snapshot := h.state
	observers := make([]func(State), 0, len(h.observers))
	for _, fn := range h.observers {
		observers = append(observers, fn)
	}
	h.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
