package doctor

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/carebook/booking-api/internal/model"
	"github.com/carebook/booking-api/internal/repository"
	"github.com/carebook/booking-api/pkg/apperror"
)

const directoryCacheKey = "doctor_directory"

// Service serves the public doctor directory. The listing is the one public
// hot read, so it is cached in-process for a short window.
type Service struct {
	userRepo repository.UserRepository
	cache    *cache.Cache
}

func NewService(userRepo repository.UserRepository, ttl time.Duration) *Service {
	return &Service{
		userRepo: userRepo,
		cache:    cache.New(ttl, 2*ttl),
	}
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.DoctorListing, error) {
	if cached, ok := s.cache.Get(directoryCacheKey); ok {
		return cached.([]*model.DoctorListing), nil
	}

	doctors, err := s.userRepo.ListDoctors(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.cache.Set(directoryCacheKey, doctors, cache.DefaultExpiration)
	return doctors, nil
}
