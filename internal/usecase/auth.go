package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
	"github.com/ErlanBelekov/storefront-client/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

type tokenClaims struct {
	Kind domain.TokenKind `json:"type"`
	jwt.RegisteredClaims
}

type AuthUsecase struct {
	users      repository.UserRepository
	revoked    repository.RevocationList
	jwtKey     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type AuthOption func(*AuthUsecase)

func WithTokenTTLs(access, refresh time.Duration) AuthOption {
	return func(u *AuthUsecase) {
		if access > 0 {
			u.accessTTL = access
		}
		if refresh > 0 {
			u.refreshTTL = refresh
		}
	}
}

// WithClock overrides time.Now for token issuing and validation.
func WithClock(now func() time.Time) AuthOption {
	return func(u *AuthUsecase) { u.now = now }
}

func NewAuthUsecase(users repository.UserRepository, revoked repository.RevocationList, jwtKey []byte, opts ...AuthOption) *AuthUsecase {
	u := &AuthUsecase{
		users:      users,
		revoked:    revoked,
		jwtKey:     jwtKey,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register hashes the password with bcrypt and stores the account.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, &domain.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and mints an access/refresh pair. Unknown email
// and wrong password are indistinguishable to the caller.
func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*domain.User, domain.TokenPair, error) {
	user, err := u.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.TokenPair{}, domain.ErrBadCredential
		}
		return nil, domain.TokenPair{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, domain.TokenPair{}, domain.ErrBadCredential
	}

	access, _, err := u.sign(user.ID, domain.TokenAccess, u.accessTTL)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}
	refresh, refreshExp, err := u.sign(user.ID, domain.TokenRefresh, u.refreshTTL)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	return user, domain.TokenPair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: refreshExp}, nil
}

// Refresh mints a new access token for the holder of a valid refresh token.
// The refresh token itself is not rotated.
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := u.Verify(ctx, refreshToken, domain.TokenRefresh)
	if err != nil {
		return "", err
	}
	access, _, err := u.sign(claims.UserID, domain.TokenAccess, u.accessTTL)
	if err != nil {
		return "", err
	}
	return access, nil
}

// Revoke blocks a verified token until it would have expired anyway.
func (u *AuthUsecase) Revoke(ctx context.Context, claims *domain.TokenClaims) error {
	if err := u.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Verify parses and validates raw as a token of the given kind, including
// the revocation check.
func (u *AuthUsecase) Verify(ctx context.Context, raw string, kind domain.TokenKind) (*domain.TokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return u.jwtKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(u.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if claims.Kind != kind || claims.ID == "" {
		return nil, domain.ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	revoked, err := u.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	return &domain.TokenClaims{
		UserID:    userID,
		TokenID:   claims.ID,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// PruneRevoked drops revocation entries for tokens that have expired.
func (u *AuthUsecase) PruneRevoked(ctx context.Context) (removed, remaining int, err error) {
	return u.revoked.Prune(ctx, u.now())
}

func (u *AuthUsecase) sign(userID int64, kind domain.TokenKind, ttl time.Duration) (string, time.Time, error) {
	now := u.now()
	exp := now.Add(ttl)
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.jwtKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}
	return signed, exp, nil
}
