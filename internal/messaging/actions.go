package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"carehub/internal/action"
	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
	"carehub/pkg/platform/sentinel"
	textutil "carehub/pkg/platform/strings"
	"carehub/pkg/requestcontext"

	"github.com/google/uuid"
)

// PermissionSendMessages gates every thread action.
const PermissionSendMessages = "SEND_MESSAGES"

const (
	ActionCreateThread = "thread.create"
	ActionReply        = "thread.reply"
	ActionArchive      = "thread.archive"
)

const (
	maxTitleLength  = 200
	maxBodyLength   = 10_000
	maxParticipants = 50
)

// Actions binds the thread actions to a store.
type Actions struct {
	store Store
}

func NewActions(store Store) *Actions {
	return &Actions{store: store}
}

func (a *Actions) CreateThread() action.Action[CreateThreadInput, *Thread] {
	return action.Define(ActionCreateThread, PermissionSendMessages, a.createThread).
		Describe("Start a conversation with one or more participants")
}

func (a *Actions) Reply() action.Action[ReplyInput, *Message] {
	return action.Define(ActionReply, PermissionSendMessages, a.reply).
		Describe("Post a message to an open thread")
}

func (a *Actions) Archive() action.Action[ArchiveInput, *Thread] {
	return action.Define(ActionArchive, PermissionSendMessages, a.archive).
		Describe("Archive a thread; archived threads accept no replies")
}

// Descriptors returns the registry entries for every thread action.
func (a *Actions) Descriptors() []action.Descriptor {
	return []action.Descriptor{
		a.CreateThread().Descriptor(),
		a.Reply().Descriptor(),
		a.Archive().Descriptor(),
	}
}

func (a *Actions) createThread(ctx context.Context, in CreateThreadInput, actx *action.Context) (*Thread, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(title) > maxTitleLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("title exceeds %d characters", maxTitleLength))
	}
	if len(in.Body) > maxBodyLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("body exceeds %d characters", maxBodyLength))
	}
	participants, err := participantSet(actx.UserID, in.Participants)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	thread := &Thread{
		ID:           uuid.NewString(),
		FacilityID:   actx.FacilityID,
		Title:        title,
		Participants: participants,
		CreatedBy:    actx.UserID,
		Status:       ThreadOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveThread(ctx, *thread); err != nil {
		return nil, fmt.Errorf("save thread: %w", err)
	}

	if body := strings.TrimSpace(in.Body); body != "" {
		msg := Message{
			ID:       uuid.NewString(),
			ThreadID: thread.ID,
			AuthorID: actx.UserID,
			Body:     body,
			SentAt:   now,
		}
		if err := a.store.AppendMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("append first message: %w", err)
		}
	}
	return thread, nil
}

// participantSet always includes the creator, keeps first-seen order and
// drops duplicates.
func participantSet(creator id.UserID, raw []string) ([]id.UserID, error) {
	raw = textutil.DedupeAndTrim(raw)
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one participant is required")
	}
	out := []id.UserID{creator}
	for _, p := range raw {
		uid, err := id.ParseUserID(p)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("invalid participant %q", p))
		}
		if !slices.Contains(out, uid) {
			out = append(out, uid)
		}
	}
	if len(out) > maxParticipants {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("a thread allows at most %d participants", maxParticipants))
	}
	return out, nil
}

func (a *Actions) reply(ctx context.Context, in ReplyInput, actx *action.Context) (*Message, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "body is required")
	}
	if len(body) > maxBodyLength {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("body exceeds %d characters", maxBodyLength))
	}
	thread, err := a.visibleThread(ctx, in.ThreadID, actx)
	if err != nil {
		return nil, err
	}
	if thread.IsArchived() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "thread is archived")
	}

	now := requestcontext.Now(ctx)
	msg := &Message{
		ID:       uuid.NewString(),
		ThreadID: thread.ID,
		AuthorID: actx.UserID,
		Body:     body,
		SentAt:   now,
	}
	if err := a.store.AppendMessage(ctx, *msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	thread.UpdatedAt = now
	if err := a.store.SaveThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("touch thread: %w", err)
	}
	return msg, nil
}

func (a *Actions) archive(ctx context.Context, in ArchiveInput, actx *action.Context) (*Thread, error) {
	thread, err := a.visibleThread(ctx, in.ThreadID, actx)
	if err != nil {
		return nil, err
	}
	if thread.IsArchived() {
		return nil, dErrors.New(dErrors.CodeConflict, "thread is already archived")
	}
	thread.Status = ThreadArchived
	thread.UpdatedAt = requestcontext.Now(ctx)
	if err := a.store.SaveThread(ctx, thread); err != nil {
		return nil, fmt.Errorf("save thread: %w", err)
	}
	return &thread, nil
}

// visibleThread loads a thread the caller may act on. Threads from another
// facility are reported as missing rather than forbidden.
func (a *Actions) visibleThread(ctx context.Context, threadID string, actx *action.Context) (Thread, error) {
	if strings.TrimSpace(threadID) == "" {
		return Thread{}, dErrors.New(dErrors.CodeValidation, "threadId is required")
	}
	thread, err := a.store.FindThread(ctx, threadID)
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && thread.FacilityID != actx.FacilityID) {
		return Thread{}, dErrors.New(dErrors.CodeNotFound, "thread not found")
	}
	if err != nil {
		return Thread{}, fmt.Errorf("load thread: %w", err)
	}
	if !thread.IsParticipant(actx.UserID) {
		return Thread{}, dErrors.New(dErrors.CodeForbidden, "caller is not a participant of this thread")
	}
	return thread, nil
}
