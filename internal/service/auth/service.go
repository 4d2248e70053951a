package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/internal/repository"
	"github.com/carebook/booking-api/pkg/apperror"
	"github.com/carebook/booking-api/pkg/auth"
	"github.com/carebook/booking-api/pkg/security"
)

type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	logger    zerolog.Logger
}

func NewService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, logger zerolog.Logger) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		logger:    logger,
	}
}

// Register creates a user together with its role profile in one transaction.
// Patients always get a profile; doctors only when a specialty is supplied;
// admins get neither. The role is immutable afterwards.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.RegisteredUser, error) {
	role := req.Role
	if role == "" {
		role = model.RolePatient
	}
	if !role.Valid() {
		return nil, apperror.Validation("invalid role")
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("user already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Validation("password too short")
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
	}

	var patient *model.PatientProfile
	var doctor *model.DoctorProfile
	switch role {
	case model.RolePatient:
		patient = &model.PatientProfile{DateOfBirth: req.DateOfBirth}
	case model.RoleDoctor:
		if req.Specialty != nil && *req.Specialty != "" {
			doctor = &model.DoctorProfile{Specialty: req.Specialty}
		}
	}

	if err := s.userRepo.CreateWithProfile(ctx, user, patient, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("user already exists")
		}
		return nil, apperror.Internal(err)
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(role)).
		Msg("user registered")

	return &model.RegisteredUser{
		User:           *user,
		PatientProfile: patient,
		DoctorProfile:  doctor,
	}, nil
}

// Login verifies credentials and issues a token whose claims carry the role
// and profile id resolved from the persisted records, never from input.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid credentials")
		}
		return nil, apperror.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Unauthenticated("invalid credentials")
	}

	patientID, doctorID, err := s.profileIDs(ctx, user)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	token, claims, err := s.jwtSvc.GenerateToken(user, patientID, doctorID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   claims.ExpiresAt.Unix() - claims.IssuedAt.Unix(),
	}, nil
}

// Authenticate validates a bearer token, rejects revoked ones, and returns
// the actor it represents.
func (s *Service) Authenticate(ctx context.Context, token string) (model.Actor, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return model.Actor{}, apperror.Unauthenticated("invalid token")
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.Actor{}, apperror.Internal(err)
	}
	if revoked {
		return model.Actor{}, apperror.Unauthenticated("token has been revoked")
	}

	return claims.Actor(), nil
}

// Logout revokes the token for the remainder of its lifetime.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return apperror.Unauthenticated("invalid token")
	}

	if err := s.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *Service) profileIDs(ctx context.Context, user *model.User) (*uuid.UUID, *uuid.UUID, error) {
	switch user.Role {
	case model.RolePatient:
		profile, err := s.userRepo.GetPatientProfile(ctx, user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, nil
			}
			return nil, nil, err
		}
		return &profile.ID, nil, nil
	case model.RoleDoctor:
		profile, err := s.userRepo.GetDoctorProfile(ctx, user.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, nil
			}
			return nil, nil, err
		}
		return nil, &profile.ID, nil
	}
	return nil, nil, nil
}
