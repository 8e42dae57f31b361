// Package service implements the user profile operations on top of a
// storage backend: record creation, listing, tag lookup, search and the
// tag-frequency aggregation.
package service

import (
	"context"

	"github.com/patric-chuzhbe/userprofiles/internal/logger"
	"github.com/patric-chuzhbe/userprofiles/internal/models"
	"github.com/patric-chuzhbe/userprofiles/internal/query"
)

type userKeeper interface {
	InsertUser(ctx context.Context, usr *models.User) error

	GetUsers(ctx context.Context) ([]models.User, error)
}

type userFinder interface {
	FindUsersByTag(ctx context.Context, matcher *query.Matcher) ([]models.User, error)

	SearchUsers(ctx context.Context, matcher *query.Matcher) ([]models.User, error)
}

type tagAggregator interface {
	GetMostUsedTags(ctx context.Context, limit int) ([]models.TagCount, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	userFinder
	tagAggregator
	pinger
}

type eventQueue interface {
	Enqueue(usr models.User) bool
}

type Service struct {
	db     storage
	events eventQueue
}

func New(db storage, events eventQueue) *Service {
	return &Service{
		db:     db,
		events: events,
	}
}

// CreateUser persists a record built from input and returns it with the
// store-assigned identifier. The user_created event is queued; a full
// queue is logged only.
func (s *Service) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	usr := input.ToUser()

	if err := s.db.InsertUser(ctx, &usr); err != nil {
		return models.User{}, &models.StoreError{Op: "insert user", Err: err}
	}

	if s.events != nil && !s.events.Enqueue(usr) {
		logger.Log.Warnw("event queue is full, user_created event dropped", "storeID", usr.StoreID)
	}

	return usr, nil
}

// GetUsers returns every record in store-native order.
func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.db.GetUsers(ctx)
	if err != nil {
		return nil, &models.StoreError{Op: "list users", Err: err}
	}
	return users, nil
}

// FindUsersByTag returns records with at least one tag containing tag,
// case-insensitively. The empty tag matches every record.
func (s *Service) FindUsersByTag(ctx context.Context, tag string) ([]models.User, error) {
	users, err := s.db.FindUsersByTag(ctx, query.NewMatcher(tag))
	if err != nil {
		return nil, &models.StoreError{Op: "find users by tag", Err: err}
	}
	return users, nil
}

// SearchUsers returns records where q is found in the name, the headline or
// any tag, case-insensitively. Each record appears at most once. The empty
// query matches every record.
func (s *Service) SearchUsers(ctx context.Context, q string) ([]models.User, error) {
	users, err := s.db.SearchUsers(ctx, query.NewMatcher(q))
	if err != nil {
		return nil, &models.StoreError{Op: "search users", Err: err}
	}
	return users, nil
}

// GetMostUsedTags returns up to models.TopTagsLimit tags by descending usage.
func (s *Service) GetMostUsedTags(ctx context.Context) ([]models.TagCount, error) {
	tags, err := s.db.GetMostUsedTags(ctx, models.TopTagsLimit)
	if err != nil {
		return nil, &models.StoreError{Op: "aggregate tags", Err: err}
	}
	return tags, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return &models.StoreError{Op: "ping", Err: err}
	}
	return nil
}
