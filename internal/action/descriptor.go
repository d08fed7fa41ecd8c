package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
)

// Handler implements the business logic of one action. It owns all data
// mutation; the dispatcher never inspects it.
type Handler[In, Out any] func(ctx context.Context, input In, actx *Context) (Out, error)

// Action binds an action id and its required permission to a handler with
// declared input and output types. Call sites use it with Execute or Call to
// get compile-time checked payloads.
type Action[In, Out any] struct {
	id          id.ActionID
	permission  id.Permission
	description string
	handler     Handler[In, Out]
}

// Define declares a typed action.
func Define[In, Out any](actionID string, permission string, handler Handler[In, Out]) Action[In, Out] {
	return Action[In, Out]{
		id:         id.ActionID(actionID),
		permission: id.Permission(permission),
		handler:    handler,
	}
}

// Describe returns a copy of a with a human readable description.
func (a Action[In, Out]) Describe(description string) Action[In, Out] {
	a.description = description
	return a
}

func (a Action[In, Out]) ID() id.ActionID {
	return a.id
}

func (a Action[In, Out]) RequiredPermission() id.Permission {
	return a.permission
}

// Descriptor erases the action's types for registration.
func (a Action[In, Out]) Descriptor() Descriptor {
	d := Descriptor{
		ID:                 a.id,
		RequiredPermission: a.permission,
		Description:        a.description,
		InputType:          reflect.TypeFor[In]().String(),
	}
	if a.handler == nil {
		return d
	}
	h := a.handler
	actionID := a.id
	d.handler = func(ctx context.Context, input any, actx *Context) (any, error) {
		var in In
		if input != nil {
			typed, ok := input.(In)
			if !ok {
				return nil, dErrors.New(dErrors.CodeBadRequest,
					fmt.Sprintf("action %s expects input of type %s, got %T", actionID, reflect.TypeFor[In](), input))
			}
			in = typed
		}
		return h(ctx, in, actx)
	}
	d.decode = func(raw []byte) (any, error) {
		var in In
		if len(bytes.TrimSpace(raw)) == 0 {
			return in, nil
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("invalid input for action %s", actionID))
		}
		return in, nil
	}
	return d
}

type erasedHandler func(ctx context.Context, input any, actx *Context) (any, error)

// Descriptor is the registry entry for one action.
type Descriptor struct {
	ID                 id.ActionID
	RequiredPermission id.Permission
	Description        string
	InputType          string

	handler erasedHandler
	decode  func(raw []byte) (any, error)
}

// DecodeInput turns a JSON body into the action's declared input type.
func (d Descriptor) DecodeInput(raw []byte) (any, error) {
	if d.decode == nil {
		return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("action %s has no input decoder", d.ID))
	}
	return d.decode(raw)
}

// Identifiable is implemented by handler results that carry an id. The id is
// recorded as resultId in the SUCCESS audit record.
type Identifiable interface {
	ResultID() string
}

func resultID(result any) (string, bool) {
	switch r := result.(type) {
	case nil:
		return "", false
	case Identifiable:
		if v := reflect.ValueOf(r); v.Kind() == reflect.Pointer && v.IsNil() {
			return "", false
		}
		rid := r.ResultID()
		return rid, rid != ""
	case map[string]any:
		v, ok := r["id"]
		if !ok || v == nil {
			return "", false
		}
		return fmt.Sprint(v), true
	}
	return "", false
}
