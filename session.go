package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionClaims are the JWT claims carried by a platform session token. Role
// distinguishes barber tokens from plain user tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID  string     `json:"uid,omitempty"`
	Role BarberRole `json:"role,omitempty"`
}

// SessionService mints and validates HS256 session tokens for authenticated
// principals.
type SessionService struct {
	signingKey []byte
	duration   time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewSessionService creates a new SessionService instance
func NewSessionService(cfg Config) *SessionService {
	return &SessionService{
		signingKey: []byte(cfg.GetSigningKey()),
		duration:   cfg.GetSessionDuration(),
		issuer:     cfg.GetIssuer(),
		audience:   cfg.GetAudience(),
		logger:     defLogger{},
	}
}

func (s *SessionService) WithLogger(logger Logger) *SessionService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Generate creates a session token for the principal, embedding its role.
func (s *SessionService) Generate(principal Principal) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   principal.PrincipalID().String(),
			Audience:  s.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
		UID:  principal.PrincipalID().String(),
		Role: principal.PrincipalRole(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Validate parses and validates a session token string, returning its claims.
func (s *SessionService) Validate(tokenString string) (*SessionClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}
	if len(s.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(s.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			s.logger.Error("session validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, parserOptions...)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "invalid session token").
			WithCode(goerrors.CodeUnauthorized)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, goerrors.New("unable to map session claims", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	return claims, nil
}

// RequireBarberRole rejects any credential whose role claim is absent or is
// the non-barber default. This is an authorization check layered on top of
// authentication: it runs on every privileged operation, never cached.
func RequireBarberRole(claims *SessionClaims) error {
	if claims == nil || claims.Role == "" || claims.Role == RoleUser {
		return ErrBarberAccessRequired
	}

	switch claims.Role {
	case RoleBarber, RoleManager, RoleAdmin:
		return nil
	default:
		return ErrBarberAccessRequired
	}
}

// IsValidBarberRole reports whether the role is one of the predefined barber
// roles.
func IsValidBarberRole(role BarberRole) bool {
	switch role {
	case RoleBarber, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

var barberRoleRank = map[BarberRole]int{
	RoleBarber:  1,
	RoleManager: 2,
	RoleAdmin:   3,
}

// RoleAtLeast reports whether role sits at or above min in the barber role
// hierarchy. Unknown roles rank below every barber role.
func RoleAtLeast(role, min BarberRole) bool {
	have, ok := barberRoleRank[role]
	if !ok {
		return false
	}
	want, ok := barberRoleRank[min]
	if !ok {
		return false
	}
	return have >= want
}
