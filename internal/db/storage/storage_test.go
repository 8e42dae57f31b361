package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/userprofiles/internal/db/jsondb"
	"github.com/patric-chuzhbe/userprofiles/internal/db/memorystorage"
	"github.com/patric-chuzhbe/userprofiles/internal/db/mongodb"
	"github.com/patric-chuzhbe/userprofiles/internal/db/postgresdb"
	"github.com/patric-chuzhbe/userprofiles/internal/db/storage"
	"github.com/patric-chuzhbe/userprofiles/internal/models"
	"github.com/patric-chuzhbe/userprofiles/internal/query"
)

var (
	_ storage.Storage = (*jsondb.JSONDB)(nil)
	_ storage.Storage = (*memorystorage.MemoryStorage)(nil)
	_ storage.Storage = (*mongodb.MongoDB)(nil)
	_ storage.Storage = (*postgresdb.PostgresDB)(nil)
)

type backend struct {
	name string
	open func(t *testing.T) storage.Storage
}

func backends() []backend {
	result := []backend{
		{
			name: "memory",
			open: func(t *testing.T) storage.Storage {
				db, err := memorystorage.New()
				require.NoError(t, err)
				return db
			},
		},
		{
			name: "json file",
			open: func(t *testing.T) storage.Storage {
				db, err := jsondb.New(filepath.Join(t.TempDir(), "users.json"))
				require.NoError(t, err)
				return db
			},
		},
	}

	if dsn := os.Getenv("TEST_DATABASE_DSN"); dsn != "" {
		result = append(result, backend{
			name: "postgresql",
			open: func(t *testing.T) storage.Storage {
				db, err := postgresdb.New(context.Background(), dsn, 10*time.Second, postgresdb.WithDBPreReset(true))
				require.NoError(t, err)
				return db
			},
		})
	}

	return result
}

// TestStorageContract runs the same scenario against every available backend.
// MongoDB has its own integration test because it needs a fresh database name.
func TestStorageContract(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			db := b.open(t)
			defer func() {
				assert.NoError(t, db.Close())
			}()

			ctx := context.Background()

			empty, err := db.GetUsers(ctx)
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			emptyTags, err := db.GetMostUsedTags(ctx, models.TopTagsLimit)
			require.NoError(t, err)
			assert.Empty(t, emptyTags)

			records := []models.User{
				{Name: "Alice", Headline: "Backend engineer", Tags: []string{"go", "rust", "go"}},
				{Name: "Bob", Headline: "Works with Alice", Tags: []string{"Go"}},
				{Name: "Carol", Headline: "a.b", Tags: []string{}},
			}
			for i := range records {
				require.NoError(t, db.InsertUser(ctx, &records[i]))
				assert.NotEmpty(t, records[i].StoreID)
			}

			users, err := db.GetUsers(ctx)
			require.NoError(t, err)
			assert.Equal(t, records, users)

			byTag, err := db.FindUsersByTag(ctx, query.NewMatcher("GO"))
			require.NoError(t, err)
			assert.Equal(t, records[:2], byTag)

			byName, err := db.SearchUsers(ctx, query.NewMatcher("alice"))
			require.NoError(t, err)
			assert.Equal(t, records[:2], byName)

			literal, err := db.SearchUsers(ctx, query.NewMatcher("a.b"))
			require.NoError(t, err)
			assert.Equal(t, records[2:], literal)

			wildcard, err := db.SearchUsers(ctx, query.NewMatcher(".*"))
			require.NoError(t, err)
			assert.Empty(t, wildcard)

			tags, err := db.GetMostUsedTags(ctx, models.TopTagsLimit)
			require.NoError(t, err)
			assert.Equal(t, []models.TagCount{{Tag: "go", Count: 2}, {Tag: "Go", Count: 1}, {Tag: "rust", Count: 1}}, tags)

			require.NoError(t, db.Ping(ctx))
		})
	}
}
