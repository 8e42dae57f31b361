// Package storage declares the contract every user store backend fulfils.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
	"github.com/patric-chuzhbe/userprofiles/internal/query"
)

type Storage interface {
	InsertUser(ctx context.Context, usr *models.User) error

	GetUsers(ctx context.Context) ([]models.User, error)

	FindUsersByTag(ctx context.Context, matcher *query.Matcher) ([]models.User, error)

	SearchUsers(ctx context.Context, matcher *query.Matcher) ([]models.User, error)

	GetMostUsedTags(ctx context.Context, limit int) ([]models.TagCount, error)

	Ping(ctx context.Context) error

	Close() error
}
