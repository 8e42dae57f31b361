// Package mockstorage provides a testify-based mock implementation of the
// user store. It is used to simulate storage failures in handler tests.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
	"github.com/patric-chuzhbe/userprofiles/internal/query"
)

// StorageMock is a testify mock implementing every storage operation.
//
// Matcher arguments are recorded by their raw term, so expectations can be
// written as db.On("SearchUsers", mock.Anything, "ali").
type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) InsertUser(ctx context.Context, usr *models.User) error {
	args := m.Called(ctx, usr)
	if storeID, ok := args.Get(0).(string); ok {
		usr.StoreID = storeID
		return args.Error(1)
	}
	return args.Error(0)
}

func (m *StorageMock) GetUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *StorageMock) FindUsersByTag(ctx context.Context, matcher *query.Matcher) ([]models.User, error) {
	args := m.Called(ctx, matcher.Term())
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *StorageMock) SearchUsers(ctx context.Context, matcher *query.Matcher) ([]models.User, error) {
	args := m.Called(ctx, matcher.Term())
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *StorageMock) GetMostUsedTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	args := m.Called(ctx, limit)
	tags, _ := args.Get(0).([]models.TagCount)
	return tags, args.Error(1)
}

func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
