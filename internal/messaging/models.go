// Package messaging holds the thread actions: creating a conversation,
// replying to it, and archiving it.
package messaging

import (
	"slices"
	"time"

	id "carehub/pkg/domain"
)

// ThreadStatus is the lifecycle state of a thread.
type ThreadStatus string

const (
	ThreadOpen     ThreadStatus = "open"
	ThreadArchived ThreadStatus = "archived"
)

// Thread is a conversation between facility staff.
//
// Invariants:
//   - Participants always includes CreatedBy
//   - An archived thread accepts no replies
type Thread struct {
	ID           string        `json:"id"`
	FacilityID   id.FacilityID `json:"facilityId,omitempty"`
	Title        string        `json:"title"`
	Participants []id.UserID   `json:"participants"`
	CreatedBy    id.UserID     `json:"createdBy"`
	Status       ThreadStatus  `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ResultID identifies the thread in the SUCCESS audit record.
func (t *Thread) ResultID() string {
	return t.ID
}

func (t *Thread) IsParticipant(userID id.UserID) bool {
	return slices.Contains(t.Participants, userID)
}

func (t *Thread) IsArchived() bool {
	return t.Status == ThreadArchived
}

// Message is one post in a thread.
type Message struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"threadId"`
	AuthorID id.UserID `json:"authorId"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sentAt"`
}

func (m *Message) ResultID() string {
	return m.ID
}

// CreateThreadInput is the payload of thread.create. Body, when present,
// becomes the first message.
type CreateThreadInput struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
	Body         string   `json:"body,omitempty"`
}

// ReplyInput is the payload of thread.reply.
type ReplyInput struct {
	ThreadID string `json:"threadId"`
	Body     string `json:"body"`
}

// ArchiveInput is the payload of thread.archive.
type ArchiveInput struct {
	ThreadID string `json:"threadId"`
}
