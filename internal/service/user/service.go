package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/internal/repository"
	"github.com/carebook/booking-api/pkg/apperror"
)

// Service is the admin user-management surface.
type Service struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

func NewService(userRepo repository.UserRepository, logger zerolog.Logger) *Service {
	return &Service{userRepo: userRepo, logger: logger}
}

func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.User, error) {
	if actor.Role != model.RoleAdmin {
		return nil, apperror.Forbidden("admin access required")
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return users, nil
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if actor.Role != model.RoleAdmin {
		return apperror.Forbidden("admin access required")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("user")
		}
		return apperror.Internal(err)
	}

	s.logger.Info().
		Str("user_id", id.String()).
		Str("deleted_by", actor.UserID.String()).
		Msg("user deleted")
	return nil
}
