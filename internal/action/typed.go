package action

import (
	"context"
	"fmt"

	dErrors "carehub/pkg/domain-errors"
)

// Execute runs a typed action through the plain variant.
func Execute[In, Out any](ctx context.Context, d *Dispatcher, a Action[In, Out], input In, actx *Context) (Out, error) {
	result, err := d.ExecuteAction(ctx, string(a.ID()), input, actx)
	return cast[Out](a, result, err)
}

// Call runs a typed action through a Hook.
func Call[In, Out any](ctx context.Context, h *Hook, a Action[In, Out], input In) (Out, error) {
	result, err := h.Execute(ctx, string(a.ID()), input)
	return cast[Out](a, result, err)
}

func cast[Out, In any](a Action[In, Out], result any, err error) (Out, error) {
	var zero Out
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	out, ok := result.(Out)
	if !ok {
		// The registry holds a different binding under this id.
		return zero, dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("action %s returned %T, not the declared output type", a.ID(), result))
	}
	return out, nil
}
