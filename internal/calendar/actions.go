package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"carehub/internal/action"
	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
	"carehub/pkg/platform/sentinel"
	"carehub/pkg/requestcontext"

	"github.com/google/uuid"
)

// PermissionManageSchedule gates calendar changes.
const PermissionManageSchedule = "MANAGE_SCHEDULE"

const (
	ActionCreateEvent = "calendar.event.create"
	ActionCancelEvent = "calendar.event.cancel"
)

const (
	maxTitleLength = 200
	maxEventLength = 14 * 24 * time.Hour
)

type Actions struct {
	store Store
}

func NewActions(store Store) *Actions {
	return &Actions{store: store}
}

func (a *Actions) CreateEvent() action.Action[CreateEventInput, *Event] {
	return action.Define(ActionCreateEvent, PermissionManageSchedule, a.createEvent).
		Describe("Schedule an event on the facility calendar")
}

func (a *Actions) CancelEvent() action.Action[CancelEventInput, *Event] {
	return action.Define(ActionCancelEvent, PermissionManageSchedule, a.cancelEvent).
		Describe("Cancel a scheduled event")
}

func (a *Actions) Descriptors() []action.Descriptor {
	return []action.Descriptor{
		a.CreateEvent().Descriptor(),
		a.CancelEvent().Descriptor(),
	}
}

func (a *Actions) createEvent(ctx context.Context, in CreateEventInput, actx *action.Context) (*Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("title exceeds %d characters", maxTitleLength))
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "start and end are required")
	}
	if !in.End.After(in.Start) {
		return nil, dErrors.New(dErrors.CodeValidation, "end must be after start")
	}
	if in.End.Sub(in.Start) > maxEventLength {
		return nil, dErrors.New(dErrors.CodeValidation, "event may not span more than 14 days")
	}

	attendees := make([]id.UserID, 0, len(in.Attendees))
	for _, raw := range in.Attendees {
		uid, err := id.ParseUserID(strings.TrimSpace(raw))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("invalid attendee %q", raw))
		}
		if !slices.Contains(attendees, uid) {
			attendees = append(attendees, uid)
		}
	}

	event := &Event{
		ID:          uuid.NewString(),
		FacilityID:  actx.FacilityID,
		Title:       title,
		Start:       in.Start.UTC(),
		End:         in.End.UTC(),
		Attendees:   attendees,
		OrganizerID: actx.UserID,
		Status:      EventScheduled,
	}
	if err := a.store.Save(ctx, *event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return event, nil
}

func (a *Actions) cancelEvent(ctx context.Context, in CancelEventInput, actx *action.Context) (*Event, error) {
	if strings.TrimSpace(in.EventID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "eventId is required")
	}
	event, err := a.store.Find(ctx, in.EventID)
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && event.FacilityID != actx.FacilityID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load event: %w", err)
	}
	if event.IsCancelled() {
		return nil, dErrors.New(dErrors.CodeConflict, "event is already cancelled")
	}

	now := requestcontext.Now(ctx)
	event.Status = EventCancelled
	event.CancelledAt = &now
	if err := a.store.Save(ctx, event); err != nil {
		return nil, fmt.Errorf("save event: %w", err)
	}
	return &event, nil
}
