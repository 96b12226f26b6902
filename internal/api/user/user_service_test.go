package user

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/go-messagely/internal/api"
)

// MockUserRepo is a mock implementation of the UserRepo interface
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) ListUsers(ctx context.Context) ([]api.UserSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.UserSummary), args.Error(1)
}

func (m *MockUserRepo) GetUserProfile(ctx context.Context, username string) (*api.UserProfile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.UserProfile), args.Error(1)
}

func TestListUsers(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)
		ctx := context.Background()

		users := []api.UserSummary{
			{Username: "alice", FirstName: "Alice"},
			{Username: "bob", FirstName: "Bob"},
		}
		mockRepo.On("ListUsers", ctx).Return(users, nil).Once()

		got, err := service.ListUsers(ctx)
		assert.NoError(t, err)
		assert.Equal(t, users, got)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RepoErrorPropagates", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)
		ctx := context.Background()

		repoErr := errors.New("connection refused")
		mockRepo.On("ListUsers", ctx).Return(nil, repoErr).Once()

		_, err := service.ListUsers(ctx)
		assert.ErrorIs(t, err, repoErr)
	})
}

func TestGetUserProfile(t *testing.T) {
	logger := slog.Default()

	t.Run("SecondReadServedFromCache", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)
		ctx := context.Background()

		profile := &api.UserProfile{Username: "alice", FirstName: "Alice", JoinedAt: time.Now()}
		// The repo must only be hit once; the second read comes from cache.
		mockRepo.On("GetUserProfile", ctx, "alice").Return(profile, nil).Once()

		first, err := service.GetUserProfile(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, profile, first)

		second, err := service.GetUserProfile(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, profile, second)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownUserNotCached", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)
		ctx := context.Background()

		mockRepo.On("GetUserProfile", ctx, "nobody").Return(nil, api.ErrNotFound).Twice()

		_, err := service.GetUserProfile(ctx, "nobody")
		assert.ErrorIs(t, err, api.ErrNotFound)

		// A miss is not cached; the repo is consulted again.
		_, err = service.GetUserProfile(ctx, "nobody")
		assert.ErrorIs(t, err, api.ErrNotFound)
		mockRepo.AssertExpectations(t)
	})

	t.Run("DistinctUsersGetDistinctEntries", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)
		ctx := context.Background()

		alice := &api.UserProfile{Username: "alice"}
		bob := &api.UserProfile{Username: "bob"}
		mockRepo.On("GetUserProfile", ctx, "alice").Return(alice, nil).Once()
		mockRepo.On("GetUserProfile", ctx, "bob").Return(bob, nil).Once()

		gotAlice, err := service.GetUserProfile(ctx, "alice")
		assert.NoError(t, err)
		gotBob, err := service.GetUserProfile(ctx, "bob")
		assert.NoError(t, err)

		assert.Equal(t, "alice", gotAlice.Username)
		assert.Equal(t, "bob", gotBob.Username)
	})
}
