// Package postgresdb provides a PostgreSQL-based implementation of the user store.
// Tags are kept in a text[] column; matching is done with strpos over lower()
// so the search term is always a bound parameter and never pattern syntax.
package postgresdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
	"github.com/patric-chuzhbe/userprofiles/internal/query"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

const selectUsers = `
	SELECT store_id::text, avatar, name, headline, tags::text, id
		FROM users
`

const tagCondition = `
	EXISTS (
		SELECT 1 FROM unnest(tags) AS t(tag)
			WHERE strpos(lower(t.tag), lower($1)) > 0
	)
`

// PostgresDB is a PostgreSQL-backed user store.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables dropping every table before the schema
// is applied. It is meant for test setups.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New opens the database, applies the embedded schema with goose and returns
// a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := result.Ping(ctx); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `result.Ping()` calling: %w",
				err,
			)
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			_ = database.Close()
			return nil,
				fmt.Errorf(
					"in internal/db/postgresdb/postgresdb.go/New(): error while `result.resetDB()` calling: %w",
					err,
				)
		}
	}

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.SetDialect()` calling: %w",
				err,
			)
	}

	if err := goose.UpContext(ctx, result.database, migrationsDir); err != nil {
		_ = database.Close()
		return nil,
			fmt.Errorf(
				"in internal/db/postgresdb/postgresdb.go/New(): error while `goose.UpContext()` calling: %w",
				err,
			)
	}

	return result, nil
}

// InsertUser inserts usr and sets its StoreID to a freshly generated UUID.
func (db *PostgresDB) InsertUser(ctx context.Context, usr *models.User) error {
	tags := usr.Tags
	if tags == nil {
		tags = []string{}
	}

	tagsLiteral, err := pq.Array(tags).Value()
	if err != nil {
		return err
	}

	storeID := uuid.New().String()

	_, err = db.database.ExecContext(
		ctx,
		`
			INSERT INTO users (store_id, avatar, name, headline, tags, id)
				VALUES ($1, $2, $3, $4, $5::text[], $6)
		`,
		storeID,
		usr.Avatar,
		usr.Name,
		usr.Headline,
		tagsLiteral,
		usr.ID,
	)
	if err != nil {
		return err
	}

	usr.StoreID = storeID

	return nil
}

// GetUsers returns every record in insertion order.
func (db *PostgresDB) GetUsers(ctx context.Context) ([]models.User, error) {
	return db.queryUsers(ctx, selectUsers+` ORDER BY seq`)
}

// FindUsersByTag returns the records having at least one tag containing the term.
func (db *PostgresDB) FindUsersByTag(ctx context.Context, matcher *query.Matcher) ([]models.User, error) {
	if matcher.MatchAll() {
		return db.GetUsers(ctx)
	}

	return db.queryUsers(
		ctx,
		selectUsers+` WHERE `+tagCondition+` ORDER BY seq`,
		matcher.Term(),
	)
}

// SearchUsers returns the records whose name, headline or any tag contains the term.
func (db *PostgresDB) SearchUsers(ctx context.Context, matcher *query.Matcher) ([]models.User, error) {
	if matcher.MatchAll() {
		return db.GetUsers(ctx)
	}

	return db.queryUsers(
		ctx,
		selectUsers+`
			WHERE strpos(lower(name), lower($1)) > 0
				OR strpos(lower(headline), lower($1)) > 0
				OR `+tagCondition+`
			ORDER BY seq
		`,
		matcher.Term(),
	)
}

// GetMostUsedTags counts every tag occurrence. Ties are broken by the tag in
// binary order to match the other backends.
func (db *PostgresDB) GetMostUsedTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT t.tag, count(*) AS cnt
				FROM users CROSS JOIN LATERAL unnest(users.tags) AS t(tag)
				GROUP BY t.tag
				ORDER BY cnt DESC, t.tag COLLATE "C" ASC
				LIMIT $1
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.TagCount{}
	for rows.Next() {
		var tc models.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		result = append(result, tc)
	}

	return result, rows.Err()
}

func (db *PostgresDB) queryUsers(ctx context.Context, sqlQuery string, args ...interface{}) ([]models.User, error) {
	rows, err := db.database.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.User{}
	for rows.Next() {
		var usr models.User
		var tags pq.StringArray
		if err := rows.Scan(&usr.StoreID, &usr.Avatar, &usr.Name, &usr.Headline, &tags, &usr.ID); err != nil {
			return nil, err
		}
		usr.Tags = []string(tags)
		if usr.Tags == nil {
			usr.Tags = []string{}
		}
		result = append(result, usr)
	}

	return result, rows.Err()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf(
			"in internal/db/postgresdb/postgresdb.go/resetDB(): error while `db.database.ExecContext()` calling: %w",
			err,
		)
	}
	return nil
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}
