// Package jsondb provides a storage backend that keeps user records in memory
// and snapshots them to a JSON file after every write.
package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
	"github.com/patric-chuzhbe/userprofiles/internal/query"
)

// JSONDB is a file-backed user store. Records are kept in insertion order.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the on-disk layout of the store.
type CacheStruct struct {
	Users []models.User
}

// New opens the store at fileName, creating the file when it does not exist.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{Users: []models.User{}},
	}

	err := parseJSONFile(fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := db.flush(); err != nil {
			return nil, err
		}
	}

	if db.Cache.Users == nil {
		db.Cache.Users = []models.User{}
	}

	return db, nil
}

// NewInMemory returns a store that is never written to disk.
func NewInMemory() *JSONDB {
	return &JSONDB{
		Cache: CacheStruct{Users: []models.User{}},
	}
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

// flush writes the cache to a temporary file and renames it over the store
// file, so a crash never leaves a truncated snapshot behind.
func (db *JSONDB) flush() error {
	if db.fileName == "" {
		return nil
	}

	jsonData, err := json.MarshalIndent(db.Cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(db.fileName), filepath.Base(db.fileName)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}

	if _, err := tmp.Write(jsonData); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing to file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), db.fileName)
}

// InsertUser stores a copy of usr and sets its StoreID.
func (db *JSONDB) InsertUser(ctx context.Context, usr *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	stored := cloneUser(*usr)
	stored.StoreID = uuid.New().String()
	db.Cache.Users = append(db.Cache.Users, stored)

	if err := db.flush(); err != nil {
		db.Cache.Users = db.Cache.Users[:len(db.Cache.Users)-1]
		return err
	}

	usr.StoreID = stored.StoreID

	return nil
}

// GetUsers returns every record in insertion order.
func (db *JSONDB) GetUsers(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	return cloneUsers(db.Cache.Users), nil
}

// FindUsersByTag returns the records having at least one tag containing the term.
func (db *JSONDB) FindUsersByTag(ctx context.Context, matcher *query.Matcher) ([]models.User, error) {
	return db.filter(ctx, matcher.MatchesTag)
}

// SearchUsers returns the records whose name, headline or any tag contains the term.
func (db *JSONDB) SearchUsers(ctx context.Context, matcher *query.Matcher) ([]models.User, error) {
	return db.filter(ctx, matcher.MatchesSearch)
}

func (db *JSONDB) filter(ctx context.Context, predicate func(models.User) bool) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	matched := funk.Filter(db.Cache.Users, predicate).([]models.User)

	return cloneUsers(matched), nil
}

// GetMostUsedTags aggregates tag occurrences over all records.
func (db *JSONDB) GetMostUsedTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	return query.TopTags(db.Cache.Users, limit), nil
}

// Ping checks that the store file is still reachable.
func (db *JSONDB) Ping(ctx context.Context) error {
	if db.fileName == "" {
		return nil
	}

	_, err := os.Stat(db.fileName)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("the storage file %q is missing", db.fileName)
	}

	return err
}

// Close writes the final snapshot.
func (db *JSONDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.flush()
}

func cloneUser(usr models.User) models.User {
	tags := make([]string, len(usr.Tags))
	copy(tags, usr.Tags)
	usr.Tags = tags
	return usr
}

func cloneUsers(users []models.User) []models.User {
	result := make([]models.User, 0, len(users))
	for _, usr := range users {
		result = append(result, cloneUser(usr))
	}
	return result
}
