// Package mongostore implements the product and order repositories on
// MongoDB. A Store is an explicitly constructed handle: the process entry
// point connects it at startup, passes it to the repositories and
// disconnects it at shutdown.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/domain/entity"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/config"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
)

var _ ports.StoreHealth = (*Store)(nil)

type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	available atomic.Bool
	indexed   atomic.Bool
}

// Connect builds the client and pings the server once. A failed ping does
// not fail Connect: the store starts as unavailable and data endpoints answer
// with ErrStoreUnavailable until a later Ping succeeds.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetTimeout(cfg.SocketTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetRetryWrites(cfg.RetryWrites).
		SetDirect(cfg.DirectConnection)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}

	s := &Store{client: client, db: client.Database(cfg.Database)}
	if err := s.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "document store not reachable at startup", "database", cfg.Database, "error", err)
	} else {
		slog.InfoContext(ctx, "connected to document store", "database", cfg.Database)
	}
	return s, nil
}

func (s *Store) Available() bool {
	return s.available.Load()
}

// Ping checks the primary and records the outcome as the availability state.
// The first successful ping also creates the indexes, so a server that comes
// up after the process started still gets them.
func (s *Store) Ping(ctx context.Context) error {
	err := s.client.Ping(ctx, readpref.Primary())
	s.available.Store(err == nil)
	if err != nil {
		return fmt.Errorf("mongostore: ping: %w", err)
	}
	if !s.indexed.Load() {
		if err := s.EnsureIndexes(ctx); err != nil {
			slog.WarnContext(ctx, "failed to create store indexes, retrying on next ping", "error", err)
		} else {
			s.indexed.Store(true)
		}
	}
	return nil
}

func (s *Store) Disconnect(ctx context.Context) error {
	s.available.Store(false)
	return s.client.Disconnect(ctx)
}

func (s *Store) Products() *ProductRepository {
	return &ProductRepository{store: s, coll: s.db.Collection(productsCollection)}
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{store: s, coll: s.db.Collection(ordersCollection)}
}

// EnsureIndexes creates the secondary indexes used by the listing filters.
// Creating an existing index is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	products := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "size", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "brand", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}
	orders := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	if _, err := s.db.Collection(productsCollection).Indexes().CreateMany(ctx, products); err != nil {
		return s.wrap("create product indexes", err)
	}
	if _, err := s.db.Collection(ordersCollection).Indexes().CreateMany(ctx, orders); err != nil {
		return s.wrap("create order indexes", err)
	}
	return nil
}

// wrap annotates a driver error. Network failures and timeouts flip the store
// to unavailable and are reported as ErrStoreUnavailable.
func (s *Store) wrap(op string, err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		s.available.Store(false)
		return fmt.Errorf("mongostore: %s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("mongostore: %s: %w", op, err)
}
