package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront-api/internal/credential"
	"github.com/flicky/storefront-api/internal/dto"
	"github.com/flicky/storefront-api/internal/model"
	"github.com/flicky/storefront-api/internal/repository"
)

const minPasswordLength = 8

type AuthService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	carts    *CartService
	tokens   *credential.TokenManager
	activity ActivityRecorder
}

func NewAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, carts *CartService,
	tokens *credential.TokenManager, activity ActivityRecorder) *AuthService {
	return &AuthService{userRepo: userRepo, roleRepo: roleRepo, carts: carts, tokens: tokens, activity: activity}
}

// Register creates the user and its customer row under the same key.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, validationError("username is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if !req.AcceptPolicy {
		return nil, ErrPolicyNotAccepted
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, storageError("check user", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := credential.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username: username, PasswordHash: hashed,
		AcceptPolicy: req.AcceptPolicy, AcceptMarketing: req.AcceptMarketing,
	}
	if err := s.userRepo.CreateWithCustomer(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, storageError("create user", err)
	}

	slog.Info("user registered", "username", user.Username, "user_id", user.ID)
	resp := toUserResponse(user)
	return &resp, nil
}

// Login checks the password, issues a token and, when cartID is set, merges
// the anonymous cart into the user's.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, storageError("get user", err)
	}
	if user == nil || !credential.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	role, err := s.roleRepo.GetRole(ctx, user.Username)
	if err != nil {
		return nil, storageError("get role", err)
	}

	if req.CartID != "" && s.carts != nil {
		if err := s.carts.MergeIntoUser(ctx, req.CartID, user.Username); err != nil {
			return nil, fmt.Errorf("merge cart: %w", err)
		}
	}

	record(ctx, s.activity, user.Username, model.ActionLogin, "")
	return &dto.AuthResponse{Token: token, User: toUserResponse(user), Role: role}, nil
}

func (s *AuthService) Logout(ctx context.Context, username string) {
	record(ctx, s.activity, username, model.ActionLogout, "")
}

// VerifyToken validates the token and re-checks that its user still exists.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*credential.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, credential.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, storageError("get user", err)
	}
	if user == nil || user.Username != claims.Username {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, username string, req dto.ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return storageError("get user", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !credential.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hashed, err := credential.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, username, hashed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return storageError("update password", err)
	}
	record(ctx, s.activity, username, model.ActionProfileUpdate, "password changed")
	return nil
}

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID: user.ID, Username: user.Username,
		AcceptPolicy: user.AcceptPolicy, AcceptMarketing: user.AcceptMarketing,
	}
}
