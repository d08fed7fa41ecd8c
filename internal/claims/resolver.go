package claims

import (
	"context"
	"fmt"

	id "carehub/pkg/domain"
	"carehub/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks carehub/internal/claims Resolver,GrantReader

// Resolver yields the current caller. A nil identity with a nil error means
// the caller is not authenticated.
type Resolver interface {
	Resolve(ctx context.Context) (*Identity, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (*Identity, error)

// Resolve implements Resolver.
func (fn ResolverFunc) Resolve(ctx context.Context) (*Identity, error) {
	return fn(ctx)
}

// ContextResolver reads the identity placed in the request context by the
// auth middleware.
type ContextResolver struct{}

// Resolve implements Resolver.
func (ContextResolver) Resolve(ctx context.Context) (*Identity, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil, nil
	}
	return &Identity{
		UID: userID,
		Claims: Claims{
			FacilityID:      requestcontext.FacilityID(ctx),
			UserPermissions: requestcontext.Permissions(ctx),
		},
	}, nil
}

// StaticResolver always returns the same identity. Scripts and tests use it.
type StaticResolver struct {
	Identity *Identity
}

// Resolve implements Resolver.
func (r StaticResolver) Resolve(context.Context) (*Identity, error) {
	return r.Identity, nil
}

// GrantReader looks up the permissions currently granted to a user.
type GrantReader interface {
	Permissions(ctx context.Context, userID id.UserID, facilityID id.FacilityID) ([]string, error)
}

// StoreResolver takes the caller's identity from the request context and
// reloads the permission set from the grant store, so revocations apply
// before the token expires.
type StoreResolver struct {
	grants GrantReader
}

// NewStoreResolver creates a StoreResolver.
func NewStoreResolver(grants GrantReader) *StoreResolver {
	return &StoreResolver{grants: grants}
}

// Resolve implements Resolver.
func (r *StoreResolver) Resolve(ctx context.Context) (*Identity, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil, nil
	}
	facilityID := requestcontext.FacilityID(ctx)
	perms, err := r.grants.Permissions(ctx, userID, facilityID)
	if err != nil {
		return nil, fmt.Errorf("load grants for %s: %w", userID, err)
	}
	return &Identity{
		UID: userID,
		Claims: Claims{
			FacilityID:      facilityID,
			UserPermissions: perms,
		},
	}, nil
}

var (
	_ Resolver = ContextResolver{}
	_ Resolver = StaticResolver{}
	_ Resolver = (*StoreResolver)(nil)
	_ Resolver = ResolverFunc(nil)
)
