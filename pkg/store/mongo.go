package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/lightdesk/pkg/buildinfo"
)

// MongoOptions configures the MongoDB backend.
type MongoOptions struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
	// ID is the document's _id, so several stages can share a collection.
	ID string `toml:"id"`
}

func (o *MongoOptions) setDefaults() {
	if o.URI == "" {
		o.URI = "mongodb://localhost:27017"
	}
	if o.Database == "" {
		o.Database = "lightdesk"
	}
	if o.Collection == "" {
		o.Collection = "configs"
	}
	if o.ID == "" {
		o.ID = "default"
	}
}

// Mongo stores the config as a single document.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	id     string
}

type mongoDoc struct {
	ID        string    `bson:"_id"`
	Config    string    `bson:"config"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	opts.setDefaults()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI).SetAppName(buildinfo.UserAgent()))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Mongo{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		id:     opts.ID,
	}, nil
}

func (m *Mongo) Load(ctx context.Context) ([]byte, error) {
	var doc mongoDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": m.id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, Retryable(fmt.Errorf("mongo find: %w", err))
	}
	return []byte(doc.Config), nil
}

func (m *Mongo) Save(ctx context.Context, data []byte) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": m.id},
		bson.M{"$set": bson.M{"config": string(data), "updatedAt": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return Retryable(fmt.Errorf("mongo upsert: %w", err))
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
