// Package auth issues, verifies and revokes the opaque session tokens that
// clients present in the x-auth header.
//
// A token is an HS256 JWT over {_id, access, jti}. The signature only proves
// integrity; the user's stored token list decides whether it is still valid,
// so removing an entry revokes the token immediately.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"todo-server/internal/domain"
	"todo-server/internal/repository"
)

// DefaultStoreTimeout bounds each store round trip made while issuing,
// verifying or revoking.
const DefaultStoreTimeout = 5 * time.Second

// Claims is the signed payload of a session token.
type Claims struct {
	UserID string `json:"_id"`
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// TokenService manages session tokens for users held in a UserRepository.
type TokenService struct {
	users   repository.UserRepository
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

// Option customises a TokenService.
type Option func(*TokenService)

// WithStoreTimeout overrides DefaultStoreTimeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *TokenService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewTokenService returns a TokenService signing with secret.
func NewTokenService(users repository.UserRepository, secret []byte, opts ...Option) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	s := &TokenService{
		users:   users,
		secret:  append([]byte(nil), secret...),
		timeout: DefaultStoreTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign produces a signed token for userID without touching the store.
func (s *TokenService) Sign(userID, access string) (string, error) {
	claims := Claims{
		UserID: userID,
		Access: access,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Issue signs a token for userID and appends it to the user's token list.
func (s *TokenService) Issue(ctx context.Context, userID, access string) (string, error) {
	token, err := s.Sign(userID, access)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.users.AddToken(ctx, userID, domain.Token{Access: access, Token: token}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrUnknownUser
		}
		return "", s.storeErr("store token", err)
	}
	return token, nil
}

// ParseToken checks the token's signature and shape. It never consults the store.
func (s *TokenService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithStrictDecoding())
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidSignature
	}
	if claims.UserID == "" {
		return nil, domain.ErrInvalidSignature
	}
	return claims, nil
}

// CheckMembership confirms that token is still held by the user named in claims.
func (s *TokenService) CheckMembership(ctx context.Context, claims *Claims, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrUnknownUser
		}
		return s.storeErr("load token owner", err)
	}
	if !user.HasToken(token) {
		return domain.ErrTokenRevoked
	}
	return nil
}

// Verify resolves token to the id of the user holding it.
func (s *TokenService) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrMissingToken
	}
	claims, err := s.ParseToken(token)
	if err != nil {
		return "", err
	}
	if err := s.CheckMembership(ctx, claims, token); err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Revoke removes token from the user's token list. Revoking an absent token
// succeeds.
func (s *TokenService) Revoke(ctx context.Context, userID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.users.RemoveToken(ctx, userID, token); err != nil {
		return s.storeErr("remove token", err)
	}
	return nil
}

func (s *TokenService) storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return repository.Unavailable(fmt.Errorf("%s: %w", op, err))
}
