package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-messagely/internal/api"
)

const (
	profileCacheTTL     = time.Minute
	profileCacheCleanup = 5 * time.Minute
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService exposes user profile reads to the transport layer.
type UserService interface {
	ListUsers(ctx context.Context) ([]api.UserSummary, error)
	GetUserProfile(ctx context.Context, username string) (*api.UserProfile, error)
}

// UserServiceImpl caches profile reads; they back both the /users routes and
// the per-message profile hydration, so they are the hottest read path.
type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	cache  *cache.Cache
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(profileCacheTTL, profileCacheCleanup),
	}
}

func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]api.UserSummary, error) {
	return s.repo.ListUsers(ctx)
}

func (s *UserServiceImpl) GetUserProfile(ctx context.Context, username string) (*api.UserProfile, error) {
	cacheKey := fmt.Sprintf("profile:%s", username)
	if cached, found := s.cache.Get(cacheKey); found {
		if profile, ok := cached.(*api.UserProfile); ok {
			return profile, nil
		}
	}

	profile, err := s.repo.GetUserProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, profile, cache.DefaultExpiration)
	return profile, nil
}
