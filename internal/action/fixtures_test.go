package action

import (
	"context"
	"errors"

	"carehub/internal/claims"
	id "carehub/pkg/domain"
)

const (
	permSend   = "SEND_MESSAGES"
	permManage = "MANAGE_FACILITY_SETTINGS"
)

type noteInput struct {
	Text string `json:"text"`
}

type note struct {
	ID   string
	Text string
}

func (n *note) ResultID() string {
	return n.ID
}

var errBoom = errors.New("boom")

// handlerCalls counts handler invocations so tests can assert a denied call
// never reached business logic.
type handlerCalls struct {
	n    int
	seen []*Context
}

func (h *handlerCalls) noteCreate() Action[noteInput, *note] {
	return Define("note.create", permSend, func(_ context.Context, in noteInput, actx *Context) (*note, error) {
		h.n++
		h.seen = append(h.seen, actx)
		return &note{ID: "note-1", Text: in.Text}, nil
	})
}

func (h *handlerCalls) noteFail() Action[noteInput, *note] {
	return Define("note.fail", permSend, func(_ context.Context, _ noteInput, _ *Context) (*note, error) {
		h.n++
		return nil, errBoom
	})
}

func (h *handlerCalls) settingsTouch() Action[map[string]any, map[string]any] {
	return Define("facility.settings.touch", permManage, func(_ context.Context, in map[string]any, actx *Context) (map[string]any, error) {
		h.n++
		h.seen = append(h.seen, actx)
		return map[string]any{"id": string(actx.FacilityID), "echo": in["k"]}, nil
	})
}

func (h *handlerCalls) registry() *Registry {
	return MustRegistry(
		h.noteCreate().Descriptor(),
		h.noteFail().Descriptor(),
		h.settingsTouch().Descriptor(),
	)
}

func identity(uid string, perms ...string) *claims.Identity {
	return &claims.Identity{
		UID: id.UserID(uid),
		Claims: claims.Claims{
			FacilityID:      "fac-1",
			UserPermissions: perms,
		},
	}
}
