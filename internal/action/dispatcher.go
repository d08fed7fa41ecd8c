// Package action is the single path through which state-changing operations
// run. Every invocation is resolved against the registry, permission checked,
// and wrapped in START and SUCCESS/ERROR audit records before its result or
// error is returned.
package action

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carehub/internal/claims"
	id "carehub/pkg/domain"
	audit "carehub/pkg/platform/audit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "carehub/internal/action"

// Dispatcher runs registered actions. It is safe for concurrent use and
// holds no per-call state.
type Dispatcher struct {
	registry *Registry
	audits   audit.Factory
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for denials and handler failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracer overrides the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// WithAuditFactory supplies recorders for plain invocations whose context
// arrives without one.
func WithAuditFactory(f audit.Factory) Option {
	return func(d *Dispatcher) {
		d.audits = f
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// ExecuteAction runs actionID with a pre-built context. It is the entry point
// for trusted server-side callers that have already authenticated the
// caller; it performs no authentication check of its own and keeps no
// loading or error state.
func (d *Dispatcher) ExecuteAction(ctx context.Context, actionID string, input any, actx *Context) (any, error) {
	if actx == nil {
		return nil, ErrUnauthenticated
	}
	if actx.Audit == nil {
		if d.audits == nil {
			return nil, ErrNoRecorder
		}
		cp := *actx
		cp.Audit = d.audits.For(actx.UserID, actx.FacilityID)
		actx = &cp
	}
	return d.run(ctx, invocation{
		actionID:    id.ActionID(actionID),
		input:       input,
		userID:      actx.UserID,
		permissions: actx.UserPermissions,
		recorder:    actx.Audit,
		context:     func() *Context { return actx },
	})
}

// invocation carries one call through the shared sequence. The reactive
// variant supplies the state callbacks; the plain variant leaves them nil.
type invocation struct {
	actionID    id.ActionID
	input       any
	userID      id.UserID
	permissions []string
	recorder    audit.Recorder
	context     func() *Context

	onStart   func()
	onFailure func(error)
	onFinish  func()
}

// run is the lookup -> permission -> START -> handler -> terminal sequence.
func (d *Dispatcher) run(ctx context.Context, inv invocation) (result any, err error) {
	started := time.Now()
	ctx, span := d.tracer.Start(ctx, "action.execute", trace.WithAttributes(
		attribute.String("action.id", string(inv.actionID)),
		attribute.String("user.id", string(inv.userID)),
	))
	outcome := outcomeSuccess
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("action.outcome", outcome))
		span.End()
		d.metrics.observe(inv.actionID, outcome, time.Since(started))
	}()

	desc, ok := d.registry.Lookup(inv.actionID)
	if !ok {
		outcome = outcomeUnknownAction
		d.logger.WarnContext(ctx, "unknown action requested",
			"action_id", inv.actionID,
			"user_id", inv.userID,
		)
		return nil, unknownActionError(inv.actionID)
	}

	if !claims.Granted(inv.permissions, desc.RequiredPermission) {
		outcome = outcomeDenied
		d.logger.WarnContext(ctx, "action denied - missing permission",
			"action_id", inv.actionID,
			"user_id", inv.userID,
			"required_permission", desc.RequiredPermission,
		)
		auditErr := inv.recorder.Record(ctx, inv.actionID, audit.PhaseError, audit.Payload{
			audit.PayloadReason: audit.ReasonAccessDenied,
			audit.PayloadUser:   string(inv.userID),
		})
		if auditErr != nil {
			return nil, errors.Join(ErrUnauthorized, auditErr)
		}
		return nil, ErrUnauthorized
	}

	if inv.onStart != nil {
		inv.onStart()
	}
	if inv.onFinish != nil {
		defer inv.onFinish()
	}
	actx := inv.context()

	span.AddEvent(string(audit.PhaseStart))
	if err := inv.recorder.Record(ctx, inv.actionID, audit.PhaseStart, audit.Payload{
		audit.PayloadInput: inv.input,
	}); err != nil {
		// Nothing was started, so no terminal record follows.
		outcome = outcomeAuditError
		d.fail(inv, err)
		return nil, err
	}

	result, err = desc.handler(ctx, inv.input, actx)
	if err != nil {
		outcome = outcomeHandlerError
		d.logger.ErrorContext(ctx, "action handler failed",
			"action_id", inv.actionID,
			"user_id", inv.userID,
			"facility_id", actx.FacilityID,
			"error", err,
		)
		return nil, d.recordFailure(ctx, inv, err)
	}

	success := audit.Payload{}
	if rid, ok := resultID(result); ok {
		success[audit.PayloadResultID] = rid
	}
	span.AddEvent(string(audit.PhaseSuccess))
	if err := inv.recorder.Record(ctx, inv.actionID, audit.PhaseSuccess, success); err != nil {
		outcome = outcomeAuditError
		return nil, d.recordFailure(ctx, inv, err)
	}
	return result, nil
}

// recordFailure captures cause into the caller's state, writes the ERROR
// record, and returns cause itself so callers can match on it. A failing
// ERROR write is joined onto cause rather than replacing it.
func (d *Dispatcher) recordFailure(ctx context.Context, inv invocation, cause error) error {
	d.fail(inv, cause)
	if err := inv.recorder.Record(ctx, inv.actionID, audit.PhaseError, audit.Payload{
		audit.PayloadError: cause.Error(),
	}); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (d *Dispatcher) fail(inv invocation, err error) {
	if inv.onFailure != nil {
		inv.onFailure(err)
	}
}
