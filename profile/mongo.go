package profile

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection is the collection profiles are written to.
const DefaultMongoCollection = "users"

type mongoDocument struct {
	ID       string `bson:"_id"`
	Document `bson:",inline"`
}

// MongoStore keeps one document per user in a collection, with _id set to
// the identifier.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore uses collection in db. An empty collection name means "users".
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{coll: db.Collection(collection)}
}

// ConnectMongo dials uri and pings the primary.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Document, error) {
	var out mongoDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("mongo find profile: %w", err)
	}
	return out.Document, nil
}

func (s *MongoStore) Set(ctx context.Context, id string, doc Document) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		mongoDocument{ID: id, Document: doc},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo replace profile: %w", err)
	}
	return nil
}
