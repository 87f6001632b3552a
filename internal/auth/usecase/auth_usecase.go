package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"evconnect/internal/auth/config"
	"evconnect/internal/auth/domain/model"
	"evconnect/internal/auth/domain/repository"
	apperrors "evconnect/internal/shared/errors"
	"evconnect/internal/shared/logger"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgUnauthorized       = "Unauthorized"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, req LoginRequest) (*model.User, string, error)
	Logout(ctx context.Context, tokenString string) error
	// Authenticate resolves a session token to its user. Every rejection is an
	// authentication error; store failures are internal errors.
	Authenticate(ctx context.Context, tokenString string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	FullName model.FullName `json:"fullname"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	users       repository.UserRepository
	revocations repository.RevocationList
	tokenSvc    repository.TokenService
	config      *config.Config
	logger      logger.Logger
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	users repository.UserRepository,
	revocations repository.RevocationList,
	tokenSvc repository.TokenService,
	cfg *config.Config,
	log logger.Logger,
) *AuthUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AuthUsecase{
		users:       users,
		revocations: revocations,
		tokenSvc:    tokenSvc,
		config:      cfg,
		logger:      log.WithComponent("auth_usecase"),
	}
}

func (req RegisterRequest) validate() *apperrors.ValidationErrors {
	ve := apperrors.NewValidationErrors()
	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		ve.Add("email", "Email is required", nil)
	case !emailRegex.MatchString(email):
		ve.Add("email", "Invalid Email", req.Email)
	}
	if strings.TrimSpace(req.FullName.FirstName) == "" {
		ve.Add("fullname.firstname", "First name is required", nil)
	}
	if strings.TrimSpace(req.FullName.LastName) == "" {
		ve.Add("fullname.lastname", "Last name is required", nil)
	}
	if req.Password == "" {
		ve.Add("password", "Password is required", nil)
	}
	return ve
}

func (req LoginRequest) validate() *apperrors.ValidationErrors {
	ve := apperrors.NewValidationErrors()
	if strings.TrimSpace(req.Email) == "" {
		ve.Add("email", "Email is required", nil)
	}
	if req.Password == "" {
		ve.Add("password", "Password is required", nil)
	}
	return ve
}

// Register creates a user account and issues its first session token
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.User, string, error) {
	if ve := req.validate(); ve.HasErrors() {
		return nil, "", ve.ToAppError()
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrUserNotFound) {
		return nil, "", apperrors.NewInternalError("Failed to check existing user").WithCause(err)
	}
	if existing != nil {
		return nil, "", apperrors.NewConflictError(msgUserExists).WithCause(model.ErrEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), uc.config.BcryptCost)
	if err != nil {
		return nil, "", apperrors.NewInternalError("Failed to hash password").WithCause(err)
	}

	user := &model.User{
		FullName: model.FullName{
			FirstName: strings.TrimSpace(req.FullName.FirstName),
			LastName:  strings.TrimSpace(req.FullName.LastName),
		},
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := uc.users.CreateUser(ctx, user); err != nil {
		// the unique index catches a concurrent registration that passed the lookup
		if errors.Is(err, model.ErrEmailTaken) {
			return nil, "", apperrors.NewConflictError(msgUserExists).WithCause(err)
		}
		return nil, "", apperrors.NewInternalError("Failed to create user").WithCause(err)
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID.Hex(), user.Email)
	if err != nil {
		return nil, "", apperrors.NewInternalError("Failed to generate token").WithCause(err)
	}

	uc.logger.WithFields(map[string]interface{}{"user_id": user.ID.Hex()}).Info("User registered")
	return user.Sanitized(), token, nil
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable.
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*model.User, string, error) {
	if ve := req.validate(); ve.HasErrors() {
		return nil, "", ve.ToAppError()
	}

	user, err := uc.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, "", apperrors.NewAuthenticationError(msgInvalidCredentials).WithCause(model.ErrInvalidCredentials)
		}
		return nil, "", apperrors.NewInternalError("Failed to get user").WithCause(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", apperrors.NewAuthenticationError(msgInvalidCredentials).WithCause(model.ErrInvalidCredentials)
	}

	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID.Hex(), user.Email)
	if err != nil {
		return nil, "", apperrors.NewInternalError("Failed to generate token").WithCause(err)
	}

	return user.Sanitized(), token, nil
}

// Logout puts the token on the revocation list
func (uc *AuthUsecase) Logout(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return apperrors.NewAuthenticationError(msgUnauthorized).WithCause(model.ErrTokenInvalid)
	}

	if _, err := uc.revocations.Revoke(ctx, tokenString); err != nil {
		if errors.Is(err, model.ErrTokenAlreadyRevoked) {
			return apperrors.NewConflictError("Token already revoked").WithCause(err)
		}
		return apperrors.NewInternalError("Failed to revoke token").WithCause(err)
	}

	uc.logger.WithContext(ctx).Info("Session token revoked")
	return nil
}

// Authenticate checks the revocation list, verifies the token and loads its user
func (uc *AuthUsecase) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	if tokenString == "" {
		return nil, apperrors.NewAuthenticationError(msgUnauthorized).WithCause(model.ErrTokenInvalid)
	}

	revoked, err := uc.revocations.IsRevoked(ctx, tokenString)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to check token revocation").WithCause(err)
	}
	if revoked {
		return nil, apperrors.NewAuthenticationError(msgUnauthorized).WithCause(model.ErrTokenRevoked)
	}

	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		uc.logger.Debugf("Rejected session token: %v", err)
		return nil, apperrors.NewAuthenticationError(msgUnauthorized).WithCause(model.ErrTokenInvalid)
	}

	user, err := uc.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, apperrors.NewAuthenticationError(msgUnauthorized).WithCause(err)
		}
		return nil, apperrors.NewInternalError("Failed to load user").WithCause(err)
	}

	return user.Sanitized(), nil
}

// GetUserByID retrieves a user without its password hash
func (uc *AuthUsecase) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("User ID is required")
	}

	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, apperrors.NewNotFoundError("User").WithCause(err)
		}
		return nil, apperrors.NewInternalError("Failed to load user").WithCause(err)
	}
	return user.Sanitized(), nil
}

// Ensure AuthUsecase implements AuthUsecaseInterface
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
