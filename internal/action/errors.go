package action

import (
	"errors"
	"fmt"

	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
)

const (
	MsgUnauthenticated = "User not authenticated"
	MsgUnauthorized    = "Unauthorized: Missing required permission"
)

var (
	// ErrUnauthenticated is returned when no caller identity can be resolved.
	ErrUnauthenticated = dErrors.New(dErrors.CodeUnauthorized, MsgUnauthenticated)
	// ErrUnauthorized is returned when the caller lacks the required permission.
	ErrUnauthorized = dErrors.New(dErrors.CodeForbidden, MsgUnauthorized)
	// ErrUnknownAction is wrapped by the error returned for unregistered ids.
	ErrUnknownAction = errors.New("unknown action")
	// ErrNoRecorder is returned when a plain invocation has no audit recorder.
	ErrNoRecorder = dErrors.New(dErrors.CodeInternal, "action context has no audit recorder")
)

func unknownActionError(actionID id.ActionID) error {
	return dErrors.Wrap(ErrUnknownAction, dErrors.CodeNotFound, fmt.Sprintf("Action %s not found", actionID))
}

// IsUnauthenticated reports whether err is the unauthenticated failure.
func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }

// IsUnauthorized reports whether err is a permission denial.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsUnknownAction reports whether err was caused by an unregistered action id.
func IsUnknownAction(err error) bool { return errors.Is(err, ErrUnknownAction) }
