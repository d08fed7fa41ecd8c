package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"carehub/internal/action"
	"carehub/internal/claims"
	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
	audit "carehub/pkg/platform/audit"
	"carehub/pkg/platform/httputil"
	"carehub/pkg/requestcontext"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// AuditReader is the query side of the audit store.
type AuditReader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler serves the callable endpoint and audit queries.
type Handler struct {
	dispatcher *action.Dispatcher
	resolver   claims.Resolver
	audits     audit.Factory
	reader     AuditReader
	logger     *slog.Logger
}

// New creates a Handler. reader may be nil when no queryable audit store is
// configured; the audit routes then answer 404.
func New(dispatcher *action.Dispatcher, resolver claims.Resolver, audits audit.Factory, reader AuditReader, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		resolver:   resolver,
		audits:     audits,
		reader:     reader,
		logger:     logger,
	}
}

type executeResponse struct {
	Result any `json:"result"`
}

// handleExecute is the trusted server-side path: the caller was
// authenticated by middleware, so the handler builds the action context
// itself (including the client address) and runs the plain variant.
func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actionID := chi.URLParam(r, "actionID")

	identity, err := h.resolver.Resolve(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve caller",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve caller"))
		return
	}
	if identity == nil || identity.UID.IsNil() {
		httputil.WriteError(w, action.ErrUnauthenticated)
		return
	}

	var input any
	if desc, ok := h.dispatcher.Registry().Lookup(id.ActionID(actionID)); ok {
		body, err := httputil.ReadBody(w, r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		input, err = desc.DecodeInput(body)
		if err != nil {
			h.logger.WarnContext(ctx, "invalid action input",
				"request_id", requestID,
				"action_id", actionID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
	}

	recorder := h.audits.For(identity.UID, identity.Claims.FacilityID)
	actx := action.NewContext(identity, recorder).WithIPAddress(requestcontext.ClientIP(ctx))
	result, err := h.dispatcher.ExecuteAction(ctx, actionID, input, actx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, executeResponse{Result: result})
}

type actionResponse struct {
	ID                 string `json:"id"`
	RequiredPermission string `json:"requiredPermission"`
	Description        string `json:"description,omitempty"`
	InputType          string `json:"inputType"`
	Allowed            bool   `json:"allowed"`
}

// handleListActions lists the registry, flagging what the caller may run.
func (h *Handler) handleListActions(w http.ResponseWriter, r *http.Request) {
	identity, err := h.resolver.Resolve(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve caller"))
		return
	}
	descs := h.dispatcher.Registry().Descriptors()
	out := make([]actionResponse, 0, len(descs))
	for _, d := range descs {
		out = append(out, actionResponse{
			ID:                 string(d.ID),
			RequiredPermission: string(d.RequiredPermission),
			Description:        d.Description,
			InputType:          d.InputType,
			Allowed:            identity.Has(d.RequiredPermission),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"actions": out})
}

type eventResponse struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	ActionID   string         `json:"actionId"`
	Phase      string         `json:"phase"`
	Category   string         `json:"category"`
	UserID     string         `json:"userId"`
	FacilityID string         `json:"facilityId,omitempty"`
	Payload    map[string]any `json:"payload"`
	RequestID  string         `json:"requestId,omitempty"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	Device     string         `json:"device,omitempty"`
}

func toEventResponses(events []audit.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			ID:         e.ID,
			Timestamp:  e.Timestamp,
			ActionID:   string(e.ActionID),
			Phase:      string(e.Phase),
			Category:   string(e.Category()),
			UserID:     string(e.UserID),
			FacilityID: string(e.FacilityID),
			Payload:    e.Payload,
			RequestID:  e.RequestID,
			IPAddress:  e.IPAddress,
			Device:     e.Device,
		})
	}
	return out
}

func (h *Handler) handleMyAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reader == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit queries are not enabled"))
		return
	}
	userID := requestcontext.UserID(ctx)
	events, err := h.reader.ListByUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": toEventResponses(events)})
}

func (h *Handler) handleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reader == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "audit queries are not enabled"))
		return
	}
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxRecentLimit)
	}
	events, err := h.reader.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list recent audit events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": toEventResponses(events)})
}
