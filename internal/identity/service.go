// Package identity implements the anonymous/registered identity gate.
// Anonymous identities exist so the timer works before sign-up; every
// ledger write and projection is refused for them.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "focustimer/backend/internal/errors"
	"focustimer/backend/internal/model"
	"focustimer/backend/internal/store"
)

type Service struct {
	userRepo  *store.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewService(userRepo *store.UserRepository, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Claims carries the anonymous flag alongside the standard claims so the
// gate can be enforced without a user lookup on every request.
type Claims struct {
	jwt.RegisteredClaims
	Anonymous bool `json:"anon,omitempty"`
}

// SignInAnonymously creates an ephemeral identity. No profile document is
// created: anonymous users never persist ledger data.
func (s *Service) SignInAnonymously(ctx context.Context) (*AuthResult, *apperrors.APIError) {
	now := time.Now().UTC()
	user := model.User{
		ID:          uuid.NewString(),
		IsAnonymous: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, apperrors.Internal("failed to create anonymous user")
	}

	token, apiErr := s.issueToken(user)
	if apiErr != nil {
		return nil, apiErr
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *Service) Register(ctx context.Context, email, password string) (*AuthResult, *apperrors.APIError) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	if normalizedEmail == "" {
		return nil, apperrors.BadRequest("invalid_email", "email is required")
	}
	if len(password) < 6 {
		return nil, apperrors.BadRequest("invalid_password", "password must be at least 6 characters")
	}

	_, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if err == nil {
		return nil, apperrors.Conflict("email_exists", "email already registered", nil)
	}
	if err != nil && err != store.ErrNotFound {
		return nil, apperrors.Internal("failed to query user")
	}

	passwordHashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to secure password")
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        normalizedEmail,
		PasswordHash: string(passwordHashBytes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, &user); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("email_exists", "email already registered", nil)
		}
		return nil, apperrors.Internal("failed to create user")
	}

	if err := s.userRepo.EnsureProfile(ctx, user.ID); err != nil {
		return nil, apperrors.Internal("failed to initialize user profile")
	}

	token, apiErr := s.issueToken(user)
	if apiErr != nil {
		return nil, apiErr
	}

	user.PasswordHash = ""
	return &AuthResult{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, *apperrors.APIError) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	if normalizedEmail == "" || password == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if err == store.ErrNotFound {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to query user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	// Sign-in guarantees the profile document exists, creating it if an
	// older account predates profiles.
	if err := s.userRepo.EnsureProfile(ctx, user.ID); err != nil {
		return nil, apperrors.Internal("failed to initialize user profile")
	}

	token, apiErr := s.issueToken(*user)
	if apiErr != nil {
		return nil, apiErr
	}

	user.PasswordHash = ""
	return &AuthResult{Token: token, User: *user}, nil
}

// ParseToken validates a token and returns the subject plus the anonymous
// flag for gate checks.
func (s *Service) ParseToken(tokenString string) (string, bool, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", false, apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return "", false, apperrors.Unauthorized("invalid token")
	}
	if claims.Subject == "" {
		return "", false, apperrors.Unauthorized("invalid token subject")
	}

	return claims.Subject, claims.Anonymous, nil
}

// IsRegistered reports whether userID names a durable, non-anonymous
// account. This is the gate the recorder and preference writer consult.
func (s *Service) IsRegistered(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return !user.IsAnonymous
}

func (s *Service) issueToken(user model.User) (string, *apperrors.APIError) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		Anonymous: user.IsAnonymous,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Internal("failed to sign token")
	}
	return signed, nil
}
