// Package mongodb provides the MongoDB-backed implementation of the user store.
//
// Lookups translate a query.Matcher into an escaped, case-insensitive regular
// expression, and the tag-frequency aggregation runs server-side as an
// $unwind / $group / $sort / $limit pipeline.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
	"github.com/patric-chuzhbe/userprofiles/internal/query"
)

const usersCollection = "users"

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Avatar   string             `bson:"avatar"`
	Name     string             `bson:"name"`
	Headline string             `bson:"headline"`
	Tags     []string           `bson:"tags"`
	UserID   string             `bson:"id"`
}

type tagGroup struct {
	Tag   string `bson:"_id"`
	Count int64  `bson:"count"`
}

// MongoDB is a user store backed by a single MongoDB collection.
type MongoDB struct {
	client            *mongo.Client
	users             *mongo.Collection
	connectionTimeout time.Duration
}

// New connects to the server at uri, verifies the connection with a ping and
// returns a store bound to the users collection of the given database.
func New(
	ctx context.Context,
	uri string,
	database string,
	connectionTimeout time.Duration,
) (*MongoDB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/New(): error while `mongo.Connect()` calling: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("in internal/db/mongodb/mongodb.go/New(): error while `client.Ping()` calling: %w", err)
	}

	return &MongoDB{
		client:            client,
		users:             client.Database(database).Collection(usersCollection),
		connectionTimeout: connectionTimeout,
	}, nil
}

// InsertUser inserts usr as a new document and sets its StoreID to the
// generated ObjectID.
func (db *MongoDB) InsertUser(ctx context.Context, usr *models.User) error {
	doc := toDocument(*usr)
	doc.ID = primitive.NewObjectID()

	if _, err := db.users.InsertOne(ctx, doc); err != nil {
		return err
	}

	usr.StoreID = doc.ID.Hex()

	return nil
}

// GetUsers returns every document in natural order.
func (db *MongoDB) GetUsers(ctx context.Context) ([]models.User, error) {
	return db.find(ctx, bson.M{})
}

// FindUsersByTag returns the documents having at least one tag containing the term.
func (db *MongoDB) FindUsersByTag(ctx context.Context, matcher *query.Matcher) ([]models.User, error) {
	return db.find(ctx, tagFilter(matcher))
}

// SearchUsers returns the documents whose name, headline or any tag contains the term.
func (db *MongoDB) SearchUsers(ctx context.Context, matcher *query.Matcher) ([]models.User, error) {
	return db.find(ctx, searchFilter(matcher))
}

// GetMostUsedTags runs the tag-frequency pipeline.
func (db *MongoDB) GetMostUsedTags(ctx context.Context, limit int) ([]models.TagCount, error) {
	cursor, err := db.users.Aggregate(ctx, topTagsPipeline(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []tagGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	result := make([]models.TagCount, 0, len(groups))
	for _, group := range groups {
		result = append(result, models.TagCount{Tag: group.Tag, Count: group.Count})
	}

	return result, nil
}

// Ping checks the connection to the primary.
func (db *MongoDB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (db *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), db.connectionTimeout)
	defer cancel()

	err := db.client.Disconnect(ctx)
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return nil
	}

	return err
}

func (db *MongoDB) find(ctx context.Context, filter interface{}) ([]models.User, error) {
	cursor, err := db.users.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.toUser())
	}

	return result, nil
}

func matcherRegex(matcher *query.Matcher) primitive.Regex {
	return primitive.Regex{Pattern: matcher.Pattern(), Options: "i"}
}

func tagFilter(matcher *query.Matcher) bson.M {
	if matcher.MatchAll() {
		return bson.M{}
	}

	return bson.M{"tags": matcherRegex(matcher)}
}

// searchFilter ORs the three field predicates; a document matching several
// of them is still returned once.
func searchFilter(matcher *query.Matcher) bson.M {
	if matcher.MatchAll() {
		return bson.M{}
	}

	re := matcherRegex(matcher)

	return bson.M{
		"$or": bson.A{
			bson.M{"name": re},
			bson.M{"headline": re},
			bson.M{"tags": re},
		},
	}
}

// topTagsPipeline counts every tag occurrence. Ties are broken by the tag
// value in ascending binary order.
func topTagsPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tags"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
}

func toDocument(usr models.User) userDocument {
	tags := usr.Tags
	if tags == nil {
		tags = []string{}
	}

	return userDocument{
		Avatar:   usr.Avatar,
		Name:     usr.Name,
		Headline: usr.Headline,
		Tags:     tags,
		UserID:   usr.ID,
	}
}

func (doc userDocument) toUser() models.User {
	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}

	return models.User{
		StoreID:  doc.ID.Hex(),
		Avatar:   doc.Avatar,
		Name:     doc.Name,
		Headline: doc.Headline,
		Tags:     tags,
		ID:       doc.UserID,
	}
}
