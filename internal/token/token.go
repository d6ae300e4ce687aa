package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/readflowhq/readflow-backend/internal/models"
)

// Policy controls how refresh tokens are validated.
type Policy string

const (
	// PolicyStateless accepts any refresh token whose signature verifies
	// and whose user is still active.
	PolicyStateless Policy = "stateless"
	// PolicySingleSession additionally requires the presented token to be
	// the one most recently stored on the user record, and rotates the
	// refresh token on every refresh.
	PolicySingleSession Policy = "single_session"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims is the access-token claim set. Subject carries the user ID.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the user ID.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Service signs and verifies access and refresh tokens with two
// independent secrets.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	policy        Policy

	now func() time.Time
}

func NewService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, policy Policy) *Service {
	if policy != PolicyStateless {
		policy = PolicySingleSession
	}
	return &Service{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		policy:        policy,
		now:           time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Policy() Policy { return s.policy }

func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// MintAccess signs a short-lived access token over {userId, email, role}.
func (s *Service) MintAccess(user *models.User) (string, error) {
	now := s.now()
	claims := AccessClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

// MintRefresh signs a longer-lived refresh token over {userId}. Each
// token carries a fresh jti so two mints for the same user never
// serialize to the same string, even within one second.
func (s *Service) MintRefresh(user *models.User) (string, error) {
	now := s.now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
}

// VerifyAccess validates signature and expiry. No store access.
func (s *Service) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims, s.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token and returns the user ID it
// references.
func (s *Service) VerifyRefresh(tokenString string) (uuid.UUID, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenString, claims, s.refreshSecret); err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	return userID, nil
}

// parse verifies signature and time claims. Claim timestamps have
// second precision, so the one-second leeway keeps a token valid
// through its stated exp instant and rejects it the second after.
func (s *Service) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithLeeway(time.Second))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// Hash returns the hex sha256 of a token; only hashes are persisted.
func Hash(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
