package audit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	audit "carehub/pkg/platform/audit"
	"carehub/pkg/platform/audit/mocks"
	"carehub/pkg/platform/circuit"
)

func TestGuardedSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockSink(ctrl)
	guard := audit.Guard("audit-redis", sink, nil,
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
	)
	ctx := context.Background()
	event := audit.Event{ActionID: "thread.create", Phase: audit.PhaseStart, UserID: "user-1"}
	errDown := errors.New("connection refused")

	sink.EXPECT().Append(gomock.Any(), event).Return(errDown).Times(2)
	require.ErrorIs(t, guard.Append(ctx, event), errDown)
	require.NoError(t, guard.Health(ctx))
	require.ErrorIs(t, guard.Append(ctx, event), errDown)
	assert.Error(t, guard.Health(ctx), "two consecutive failures mark the sink unhealthy")

	sink.EXPECT().Append(gomock.Any(), event).Return(nil)
	require.NoError(t, guard.Append(ctx, event), "writes still reach the sink while unhealthy")
	assert.NoError(t, guard.Health(ctx))
}
