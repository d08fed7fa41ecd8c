package audit

import (
	"context"

	id "carehub/pkg/domain"
	"carehub/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks carehub/pkg/platform/audit Recorder,Factory,Sink

// Recorder persists one phase of one action invocation. A Recorder is bound
// to a single caller identity for its whole lifetime.
type Recorder interface {
	Record(ctx context.Context, actionID id.ActionID, phase Phase, payload Payload) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, actionID id.ActionID, phase Phase, payload Payload) error

// Record implements Recorder.
func (fn RecorderFunc) Record(ctx context.Context, actionID id.ActionID, phase Phase, payload Payload) error {
	return fn(ctx, actionID, phase, payload)
}

// Factory hands out recorders bound to one identity.
type Factory interface {
	For(userID id.UserID, facilityID id.FacilityID) Recorder
}

// Sink persists audit events. Implementations must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a Sink that can also be queried.
type Store interface {
	Sink
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListByAction(ctx context.Context, actionID id.ActionID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// SinkFactory binds a Sink to caller identities.
type SinkFactory struct {
	Sink Sink
}

// NewFactory returns a Factory writing to sink.
func NewFactory(sink Sink) *SinkFactory {
	return &SinkFactory{Sink: sink}
}

// For implements Factory.
func (f *SinkFactory) For(userID id.UserID, facilityID id.FacilityID) Recorder {
	return Bind(f.Sink, userID, facilityID)
}

// BoundRecorder attributes every record to the identity it was built with.
type BoundRecorder struct {
	sink       Sink
	userID     id.UserID
	facilityID id.FacilityID
}

// Bind returns a Recorder for one caller.
func Bind(sink Sink, userID id.UserID, facilityID id.FacilityID) *BoundRecorder {
	return &BoundRecorder{sink: sink, userID: userID, facilityID: facilityID}
}

// UserID returns the identity the recorder is bound to.
func (r *BoundRecorder) UserID() id.UserID { return r.userID }

// FacilityID returns the facility scope the recorder is bound to.
func (r *BoundRecorder) FacilityID() id.FacilityID { return r.facilityID }

// Record implements Recorder. Request metadata (request id, client IP, device)
// is taken from ctx when present.
func (r *BoundRecorder) Record(ctx context.Context, actionID id.ActionID, phase Phase, payload Payload) error {
	return r.sink.Append(ctx, Event{
		ActionID:   actionID,
		Phase:      phase,
		UserID:     r.userID,
		FacilityID: r.facilityID,
		Payload:    payload.Clone(),
		RequestID:  requestcontext.RequestID(ctx),
		IPAddress:  requestcontext.ClientIP(ctx),
		Device:     requestcontext.Device(ctx),
	})
}

// NoopRecorder drops every record.
type NoopRecorder struct{}

// Record implements Recorder.
func (NoopRecorder) Record(context.Context, id.ActionID, Phase, Payload) error { return nil }

var (
	_ Recorder = (*BoundRecorder)(nil)
	_ Recorder = RecorderFunc(nil)
	_ Recorder = NoopRecorder{}
	_ Factory  = (*SinkFactory)(nil)
)
