package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"brokerage/internal/platform/config"
)

// Client wraps the mongo client together with the configured database handle.
type Client struct {
	*mongo.Client
	db *mongo.Database
}

// New connects to MongoDB and verifies the connection with a ping.
func New(ctx context.Context, cfg config.Server) (*Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}
	return &Client{Client: client, db: client.Database(cfg.MongoDatabase)}, nil
}

// Database returns the configured database handle.
func (c *Client) Database() *mongo.Database { return c.db }

// Health checks whether the connection is alive.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx, readpref.Primary())
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.Disconnect(ctx)
}
