// Package service contains the application business logic.
package service

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenIssuer and TokenAudience are validated by the auth middleware.
	TokenIssuer   = "inkwell-api"
	TokenAudience = "inkwell-client"

	tokenTTL = time.Hour
)

// AuthService handles registration, login, and profile lookup.
type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// NewAuthService returns a new AuthService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{userRepo: userRepo, jwtSecret: jwtSecret}
}

// Register creates a new account and returns a signed token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	ctx, span := observability.TraceServiceMethod(ctx, "auth_service", "register")
	defer span.End()

	if err := validation.ValidateUsername(in.Username); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		observability.RecordAuthAttempt("register", false)
		return "", models.NewConflictError("User already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the GetByEmail check; the
		// unique index reports it as a conflict.
		observability.RecordAuthAttempt("register", false)
		return "", err
	}

	observability.RecordAuthAttempt("register", true)
	return s.generateToken(user.ID)
}

// Login verifies credentials and returns a signed token. Unknown email and
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	ctx, span := observability.TraceServiceMethod(ctx, "auth_service", "login")
	defer span.End()

	if err := validation.ValidateEmail(in.Email); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if in.Password == "" {
		return "", models.NewValidationError("Password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if user == nil {
		observability.RecordAuthAttempt("login", false)
		return "", models.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		observability.RecordAuthAttempt("login", false)
		return "", models.NewInvalidCredentialsError()
	}

	observability.RecordAuthAttempt("login", true)
	return s.generateToken(user.ID)
}

// GetProfile returns the user for the given ID with the password hash cleared.
func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func (s *AuthService) generateToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"exp": now.Add(tokenTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8]),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}
