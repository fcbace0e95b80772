package database

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tweetline/internal/config"
)

const (
	UsersCollection  = "users"
	TweetsCollection = "tweets"
)

type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func ConnectMongo(cfg *config.Config) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.StoreTimeout)
	defer cancel()

	log.Printf("connecting to mongo: db=%s", cfg.Mongo.Database)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI).SetTimeout(cfg.StoreTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	m := &Mongo{Client: client, DB: client.Database(cfg.Mongo.Database)}
	if err := m.EnsureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	log.Println("connected to mongo")
	return m, nil
}

// EnsureIndexes creates the uniqueness and lookup indexes the stores rely on.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "reset_password_token", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = m.DB.Collection(TweetsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "comments.author_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create tweet indexes: %w", err)
	}

	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
