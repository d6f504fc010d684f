package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "foodgram/internal/errors"
	"foodgram/internal/model"
	"foodgram/internal/repository"
)

func newSubscriptionService(users *MockUserRepository, follows *MockFollowRepository, recipes *MockRecipeRepository) SubscriptionService {
	return NewSubscriptionService(users, follows, recipes, new(MockImageStore), 3)
}

func TestSubscriptionService_SelfSubscriptionAlwaysRejected(t *testing.T) {
	for _, following := range []bool{false, true} {
		t.Run(fmt.Sprintf("following=%v", following), func(t *testing.T) {
			users, follows, recipes := new(MockUserRepository), new(MockFollowRepository), new(MockRecipeRepository)
			users.On("FindByID", mock.Anything, uint(4)).Return(&model.User{ID: 4}, nil).Maybe()
			follows.On("Exists", mock.Anything, uint(4), uint(4)).Return(following, nil).Maybe()

			_, err := newSubscriptionService(users, follows, recipes).Subscribe(context.Background(), 4, 4, 0)
			assert.ErrorIs(t, err, apperrors.ErrSelfSubscription)

			users.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
			follows.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
			follows.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	author := &model.User{ID: 1, Username: "alice"}

	tests := []struct {
		name          string
		setupMock     func(*MockUserRepository, *MockFollowRepository, *MockRecipeRepository)
		expectedError error
	}{
		{
			name: "success with capped recipes",
			setupMock: func(u *MockUserRepository, f *MockFollowRepository, r *MockRecipeRepository) {
				u.On("FindByID", mock.Anything, uint(1)).Return(author, nil)
				f.On("Exists", mock.Anything, uint(2), uint(1)).Return(false, nil)
				f.On("Add", mock.Anything, uint(2), uint(1)).Return(nil)
				r.On("CountByAuthors", mock.Anything, []uint{1}).Return(map[uint]int64{1: 5}, nil)
				r.On("ListByAuthor", mock.Anything, uint(1), 3).Return([]model.Recipe{
					{ID: 9, Name: "c"}, {ID: 8, Name: "b"}, {ID: 7, Name: "a", Image: "recipes/a.jpg"},
				}, nil)
			},
		},
		{
			name: "already subscribed",
			setupMock: func(u *MockUserRepository, f *MockFollowRepository, r *MockRecipeRepository) {
				u.On("FindByID", mock.Anything, uint(1)).Return(author, nil)
				f.On("Exists", mock.Anything, uint(2), uint(1)).Return(true, nil)
			},
			expectedError: apperrors.ErrAlreadySubscribed,
		},
		{
			name: "concurrent duplicate",
			setupMock: func(u *MockUserRepository, f *MockFollowRepository, r *MockRecipeRepository) {
				u.On("FindByID", mock.Anything, uint(1)).Return(author, nil)
				f.On("Exists", mock.Anything, uint(2), uint(1)).Return(false, nil)
				f.On("Add", mock.Anything, uint(2), uint(1)).Return(repository.ErrDuplicate)
			},
			expectedError: apperrors.ErrAlreadySubscribed,
		},
		{
			name: "unknown author",
			setupMock: func(u *MockUserRepository, f *MockFollowRepository, r *MockRecipeRepository) {
				u.On("FindByID", mock.Anything, uint(1)).Return(nil, repository.ErrNotFound)
			},
			expectedError: apperrors.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, follows, recipes := new(MockUserRepository), new(MockFollowRepository), new(MockRecipeRepository)
			tt.setupMock(users, follows, recipes)

			profile, err := newSubscriptionService(users, follows, recipes).Subscribe(context.Background(), 2, 1, 0)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, profile)
				return
			}
			require.NoError(t, err)
			assert.True(t, profile.IsSubscribed)
			assert.Equal(t, int64(5), profile.RecipesCount)
			require.Len(t, profile.Recipes, 3)
			assert.Equal(t, "/media/recipes/a.jpg", profile.Recipes[2].Image)
			follows.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Unsubscribe(t *testing.T) {
	users, follows, recipes := new(MockUserRepository), new(MockFollowRepository), new(MockRecipeRepository)
	users.On("FindByID", mock.Anything, uint(1)).Return(&model.User{ID: 1}, nil)
	follows.On("Remove", mock.Anything, uint(2), uint(1)).Return(true, nil).Once()
	follows.On("Remove", mock.Anything, uint(2), uint(1)).Return(false, nil).Once()

	svc := newSubscriptionService(users, follows, recipes)
	require.NoError(t, svc.Unsubscribe(context.Background(), 2, 1))
	assert.ErrorIs(t, svc.Unsubscribe(context.Background(), 2, 1), apperrors.ErrNotSubscribed)
}

func TestSubscriptionService_Subscriptions(t *testing.T) {
	users, follows, recipes := new(MockUserRepository), new(MockFollowRepository), new(MockRecipeRepository)
	page := repository.Page{Limit: 6}
	follows.On("ListAuthors", mock.Anything, uint(2), page).Return([]model.User{{ID: 1}, {ID: 3}}, int64(2), nil)
	recipes.On("CountByAuthors", mock.Anything, []uint{1, 3}).Return(map[uint]int64{1: 1}, nil)
	recipes.On("ListByAuthor", mock.Anything, uint(1), 1).Return([]model.Recipe{{ID: 7}}, nil)
	recipes.On("ListByAuthor", mock.Anything, uint(3), 1).Return([]model.Recipe{}, nil)

	profiles, total, err := newSubscriptionService(users, follows, recipes).Subscriptions(context.Background(), 2, page, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, profiles, 2)
	assert.Equal(t, int64(1), profiles[0].RecipesCount)
	assert.Zero(t, profiles[1].RecipesCount)
	assert.NotNil(t, profiles[1].Recipes)

	_, _, err = newSubscriptionService(users, follows, recipes).Subscriptions(context.Background(), 0, page, 1)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}
