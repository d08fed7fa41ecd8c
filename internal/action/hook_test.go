package action

import (
	"context"
	"errors"
	"sync"
	"testing"

	"carehub/internal/claims"
	claimsmocks "carehub/internal/claims/mocks"
	audit "carehub/pkg/platform/audit"
	auditmemory "carehub/pkg/platform/audit/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type hookFixture struct {
	calls *handlerCalls
	store *auditmemory.InMemoryStore
	hook  *Hook
	seen  []State
}

func newHookFixture(t *testing.T, resolver claims.Resolver) *hookFixture {
	t.Helper()
	f := &hookFixture{calls: &handlerCalls{}, store: auditmemory.NewInMemoryStore()}
	d := NewDispatcher(f.calls.registry())
	f.hook = NewHook(d, resolver, audit.NewFactory(f.store))
	unsubscribe := f.hook.Subscribe(func(s State) { f.seen = append(f.seen, s) })
	t.Cleanup(unsubscribe)
	return f
}

func TestHookLoadingTransitions(t *testing.T) {
	f := newHookFixture(t, claims.StaticResolver{Identity: identity("user-1", permSend)})

	result, err := f.hook.Execute(context.Background(), "note.create", noteInput{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "note-1", result.(*note).ID)

	assert.Equal(t, []State{{Loading: true}, {Loading: false}}, f.seen)
	assert.False(t, f.hook.Loading())
	assert.NoError(t, f.hook.Err())
	assert.Equal(t, 2, f.store.Len())
}

func TestHookFailureSetsErr(t *testing.T) {
	f := newHookFixture(t, claims.StaticResolver{Identity: identity("user-1", permSend)})

	_, err := f.hook.Execute(context.Background(), "note.fail", noteInput{})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, []State{
		{Loading: true},
		{Loading: true, Err: errBoom},
		{Loading: false, Err: errBoom},
	}, f.seen)
	assert.Same(t, errBoom, f.hook.Err())

	// The next authorized call clears the previous error when it starts.
	_, err = f.hook.Execute(context.Background(), "note.create", noteInput{})
	require.NoError(t, err)
	assert.NoError(t, f.hook.Err())
	assert.False(t, f.hook.Loading())
}

func TestHookUnauthenticated(t *testing.T) {
	tests := []struct {
		name     string
		identity *claims.Identity
	}{
		{"no identity", nil},
		{"empty uid", identity("", permSend)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHookFixture(t, claims.StaticResolver{Identity: tt.identity})

			_, err := f.hook.Execute(context.Background(), "note.create", noteInput{})
			require.ErrorIs(t, err, ErrUnauthenticated)
			assert.Equal(t, "User not authenticated", err.Error())
			assert.Zero(t, f.store.Len(), "no audit record for unauthenticated callers")
			assert.Empty(t, f.seen, "state is untouched")
			assert.Zero(t, f.calls.n)
		})
	}
}

func TestHookDeniedLeavesStateAlone(t *testing.T) {
	f := newHookFixture(t, claims.StaticResolver{Identity: identity("user-2")})

	_, err := f.hook.Execute(context.Background(), "note.create", noteInput{})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, f.seen)
	assert.NoError(t, f.hook.Err())
	require.Equal(t, 1, f.store.Len())
	assert.Equal(t, audit.ReasonAccessDenied, f.store.All()[0].Payload[audit.PayloadReason])
}

func TestHookUnknownAction(t *testing.T) {
	f := newHookFixture(t, claims.StaticResolver{Identity: identity("user-1", permSend)})

	_, err := f.hook.Execute(context.Background(), "note.nope", nil)
	require.True(t, IsUnknownAction(err))
	assert.Empty(t, f.seen)
	assert.Zero(t, f.store.Len())
}

func TestHookResolverError(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := claimsmocks.NewMockResolver(ctrl)
	errGrants := errors.New("grant store unavailable")
	resolver.EXPECT().Resolve(gomock.Any()).Return(nil, errGrants)

	f := newHookFixture(t, resolver)
	_, err := f.hook.Execute(context.Background(), "note.create", noteInput{})
	require.ErrorIs(t, err, errGrants)
	assert.EqualError(t, err, "resolve caller: grant store unavailable")
	assert.NotErrorIs(t, err, ErrUnauthenticated)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, f.store.Len())
	assert.Empty(t, f.seen)
}

func TestHookHandlerSeesNoIPAddress(t *testing.T) {
	f := newHookFixture(t, claims.StaticResolver{Identity: identity("user-1", permSend)})

	_, err := f.hook.Execute(context.Background(), "note.create", noteInput{})
	require.NoError(t, err)
	require.Len(t, f.calls.seen, 1)
	assert.Empty(t, f.calls.seen[0].IPAddress)
	assert.NotNil(t, f.calls.seen[0].Audit)
}

func TestHookOverlappingCallsShareState(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	slow := Define("note.slow", permSend, func(_ context.Context, _ noteInput, _ *Context) (*note, error) {
		entered <- struct{}{}
		<-release
		return &note{ID: "slow"}, nil
	})
	store := auditmemory.NewInMemoryStore()
	d := NewDispatcher(MustRegistry(slow.Descriptor()))
	hook := NewHook(d, claims.StaticResolver{Identity: identity("user-1", permSend)}, audit.NewFactory(store))

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := hook.Execute(context.Background(), "note.slow", noteInput{})
			assert.NoError(t, err)
		}()
	}
	<-entered
	<-entered
	assert.True(t, hook.Loading(), "both calls in flight")

	close(release)
	wg.Wait()
	assert.False(t, hook.Loading())

	// Each call still writes its own START/SUCCESS pair.
	assert.Equal(t, 4, store.Len())
	starts, successes := 0, 0
	for _, e := range store.All() {
		switch e.Phase {
		case audit.PhaseStart:
			starts++
		case audit.PhaseSuccess:
			successes++
		}
	}
	assert.Equal(t, 2, starts)
	assert.Equal(t, 2, successes)
}

func TestHookSubscribeUnsubscribe(t *testing.T) {
	f := newHookFixture(t, claims.StaticResolver{Identity: identity("user-1", permSend)})
	var extra []State
	unsubscribe := f.hook.Subscribe(func(s State) { extra = append(extra, s) })
	unsubscribe()

	_, err := f.hook.Execute(context.Background(), "note.create", noteInput{})
	require.NoError(t, err)
	assert.Empty(t, extra)
	assert.Len(t, f.seen, 2)
}
