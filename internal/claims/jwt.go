package claims

import (
	"errors"
	"time"

	id "carehub/pkg/domain"
	dErrors "carehub/pkg/domain-errors"
	"carehub/pkg/platform/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims are the JWT claims carried by access tokens.
type TokenClaims struct {
	UserID      string   `json:"user_id"`
	FacilityID  string   `json:"facility_id,omitempty"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// JWTService issues and validates access tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

// Issue signs an access token for identity.
func (s *JWTService) Issue(identity Identity, expiresIn time.Duration) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		UserID:      string(identity.UID),
		FacilityID:  string(identity.Claims.FacilityID),
		Permissions: identity.Claims.UserPermissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			Subject:   string(identity.UID),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate parses a token and returns the identity it carries.
func (s *JWTService) Validate(tokenString string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	tc, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if tc.UserID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no user")
	}

	return &Identity{
		UID: id.UserID(tc.UserID),
		Claims: Claims{
			FacilityID:      id.FacilityID(tc.FacilityID),
			UserPermissions: tc.Permissions,
		},
	}, nil
}

// ValidateToken adapts Validate to the auth middleware.
func (s *JWTService) ValidateToken(tokenString string) (*auth.Principal, error) {
	identity, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{
		UserID:      identity.UID,
		FacilityID:  identity.Claims.FacilityID,
		Permissions: identity.Claims.UserPermissions,
	}, nil
}

var _ auth.TokenValidator = (*JWTService)(nil)
