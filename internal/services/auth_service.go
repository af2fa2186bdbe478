package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

type authService struct {
	repo     repositories.Repository
	logger   *slog.Logger
	password string
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, sharedPassword string) AuthService {
	return &authService{
		repo:     repo,
		logger:   logger,
		password: sharedPassword,
	}
}

func (s *authService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.repo.User().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, summarize(u))
	}
	return out, nil
}

// Login resolves the user before looking at the password so the caller can
// tell an unknown user from a wrong password.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {
	if req == nil || req.UserID == 0 {
		return nil, newValidationError(errors.New("User selection required"))
	}

	user, err := s.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if s.password == "" {
		s.logger.Error("Login attempted without a configured password")
		return nil, ErrServerMisconfigured
	}

	if !passwordsMatch(req.Password, s.password) {
		s.logger.Warn("Login rejected", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "User", Value: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// passwordsMatch hashes both sides first so the comparison time does not
// depend on the length of either input.
func passwordsMatch(given, want string) bool {
	a := sha256.Sum256([]byte(given))
	b := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

func summarize(u *models.User) models.UserSummary {
	return models.UserSummary{ID: u.ID, DisplayName: u.DisplayName, Role: u.Role}
}
