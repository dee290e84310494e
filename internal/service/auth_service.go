package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"hospital-api/internal/model"
	"hospital-api/internal/token"
	"hospital-api/pkg/apierror"
)

const bcryptCost = 12

// UserStore is the credential-store boundary. Records returned include the
// password hash; only this package compares or rewrites it.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	Update(ctx context.Context, u model.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	ExistsOtherWithUsernameOrEmail(ctx context.Context, excludeID string, username string, email string) (bool, error)
}

// AuthCollector records auth outcomes for metrics; implementations must be
// safe for concurrent use.
type AuthCollector interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordRegistration()
}

type noopAuthCollector struct{}

func (noopAuthCollector) RecordLoginSuccess() {}
func (noopAuthCollector) RecordLoginFailure() {}
func (noopAuthCollector) RecordRegistration() {}

type AuthService struct {
	users   UserStore
	issuer  *token.Issuer
	metrics AuthCollector
}

func NewAuthService(users UserStore, issuer *token.Issuer, metrics AuthCollector) *AuthService {
	if metrics == nil {
		metrics = noopAuthCollector{}
	}
	return &AuthService{users: users, issuer: issuer, metrics: metrics}
}

// Register creates the account and signs the caller in. The store's unique
// indexes are the real uniqueness check; the duplicate error from a losing
// concurrent insert maps to the same conflict as the early exit would.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.PublicUser, string, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" || email == "" || req.Password == "" {
		return model.PublicUser{}, "", apierror.BadRequest("username, email and password are required", "")
	}
	if !model.ValidUsername(username) {
		return model.PublicUser{}, "", apierror.BadRequest("username must be 3-30 characters of letters, numbers and underscores", "username")
	}
	if !model.ValidEmail(email) {
		return model.PublicUser{}, "", apierror.BadRequest("invalid email address", "email")
	}
	if len(req.Password) < model.MinPasswordLength {
		return model.PublicUser{}, "", apierror.BadRequest(
			fmt.Sprintf("password must be at least %d characters", model.MinPasswordLength), "password")
	}

	role := model.RoleReceptionist
	if strings.TrimSpace(req.Role) != "" {
		role = model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
		if !role.Valid() {
			return model.PublicUser{}, "", apierror.BadRequest("invalid role", req.Role)
		}
	}

	// Early exit only; the insert below is the authoritative check.
	exists, err := s.users.ExistsOtherWithUsernameOrEmail(ctx, "", username, email)
	if err != nil {
		return model.PublicUser{}, "", err
	}
	if exists {
		return model.PublicUser{}, "", apierror.Conflict("user with this username or email already exists", "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return model.PublicUser{}, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
		LastLogin:    &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.PublicUser{}, "", apierror.Conflict("user with this username or email already exists", "")
		}
		return model.PublicUser{}, "", err
	}

	signed, err := s.issuer.Mint(user.ID, user.Username, user.Role)
	if err != nil {
		return model.PublicUser{}, "", err
	}

	s.metrics.RecordRegistration()
	return user.Public(), signed, nil
}

// Login authenticates by username or email. Unknown identifier and wrong
// password return the identical error so the two are indistinguishable to the
// client.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.PublicUser, string, error) {
	identifier := strings.TrimSpace(req.Username)
	if identifier == "" || req.Password == "" {
		return model.PublicUser{}, "", apierror.BadRequest("username and password are required", "")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.metrics.RecordLoginFailure()
			return model.PublicUser{}, "", apierror.Unauthorized("invalid credentials")
		}
		return model.PublicUser{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.RecordLoginFailure()
		return model.PublicUser{}, "", apierror.Unauthorized("invalid credentials")
	}

	if !user.IsActive {
		s.metrics.RecordLoginFailure()
		return model.PublicUser{}, "", apierror.Forbidden("account is deactivated")
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return model.PublicUser{}, "", err
	}
	user.LastLogin = &now

	signed, err := s.issuer.Mint(user.ID, user.Username, user.Role)
	if err != nil {
		return model.PublicUser{}, "", err
	}

	s.metrics.RecordLoginSuccess()
	return user.Public(), signed, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.PublicUser{}, apierror.NotFound("user not found", "")
		}
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// UpdateProfile applies the self-service allow-list. When username or email
// actually changes, uniqueness is re-checked against the final set of changed
// fields, excluding the caller's own record.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.PublicUser{}, apierror.NotFound("user not found", "")
		}
		return model.PublicUser{}, err
	}

	var changedUsername, changedEmail string

	if req.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*req.Username))
		if !model.ValidUsername(username) {
			return model.PublicUser{}, apierror.BadRequest("username must be 3-30 characters of letters, numbers and underscores", "username")
		}
		if username != user.Username {
			changedUsername = username
		}
		user.Username = username
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if !model.ValidEmail(email) {
			return model.PublicUser{}, apierror.BadRequest("invalid email address", "email")
		}
		if email != user.Email {
			changedEmail = email
		}
		user.Email = email
	}

	if changedUsername != "" || changedEmail != "" {
		exists, err := s.users.ExistsOtherWithUsernameOrEmail(ctx, user.ID, changedUsername, changedEmail)
		if err != nil {
			return model.PublicUser{}, err
		}
		if exists {
			return model.PublicUser{}, apierror.Conflict("username or email already taken", "")
		}
	}

	if req.Department != nil {
		user.Department = req.Department
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.ProfileImage != nil {
		user.ProfileImage = req.ProfileImage
	}

	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.PublicUser{}, apierror.Conflict("username or email already taken", "")
		}
		if errors.Is(err, model.ErrUserNotFound) {
			return model.PublicUser{}, apierror.NotFound("user not found", "")
		}
		return model.PublicUser{}, err
	}

	return user.Public(), nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apierror.BadRequest("current and new password are required", "")
	}
	if len(req.NewPassword) < model.MinPasswordLength {
		return apierror.BadRequest(
			fmt.Sprintf("new password must be at least %d characters", model.MinPasswordLength), "new_password")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return apierror.NotFound("user not found", "")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apierror.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, userID, string(hash))
}
