package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/schoolhub/internal/app/models"
	appRepos "github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/auth"
)

// DefaultTeacher is the account created on an empty install so courses can be set up
type DefaultTeacher struct {
	Name     string
	Email    string
	Password string
}

// CreateDefaultData creates the default teacher unless a user with that email exists.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, teacher DefaultTeacher, lgr zerolog.Logger) error {
	email := strings.TrimSpace(teacher.Email)
	if email == "" || teacher.Password == "" {
		lgr.Info().Msg("No default teacher configured, skipping seed")
		return nil
	}

	lgr.Info().Msg("Checking/Creating default teacher...")
	_, err := repos.UserRepository.GetByEmail(ctx, email)
	if err == nil {
		lgr.Info().Str("email", email).Msg("Default teacher already exists, skipping creation")
		return nil
	}
	if !errors.Is(err, appRepos.ErrNotFound) {
		return fmt.Errorf("error checking default teacher: %w", err)
	}

	hashed, err := auth.HashPassword(teacher.Password)
	if err != nil {
		return fmt.Errorf("error hashing default teacher password: %w", err)
	}

	name := teacher.Name
	if name == "" {
		name = "Default Teacher"
	}
	now := time.Now().UTC()
	user := &appModels.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  hashed,
		Role:      appModels.RoleTeacher,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.UserRepository.Create(ctx, user); err != nil {
		if errors.Is(err, appRepos.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("error creating default teacher: %w", err)
	}

	lgr.Info().Str("userID", user.ID).Msg("Default teacher created successfully")
	return nil
}
