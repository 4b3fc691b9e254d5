// Package mongostore persists aggregates in a MongoDB collection.
//
// Each tenant is one document:
//
//	{_id: <tenant>, aggregate: <aggregate document>, updatedAt: <time>}
//
// Import Path: archgraph.io/archgraph/internal/store/mongostore
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/metrics"
	"archgraph.io/archgraph/internal/store"
)

const backend = "mongo"

// Defaults for Options.
const (
	DefaultDatabase   = "archgraph"
	DefaultCollection = "aggregates"
)

// Options configures Connect.
type Options struct {
	URI        string
	Database   string
	Collection string
}

// record is the stored document.
type record struct {
	ID        string    `bson:"_id"`
	Aggregate bson.Raw  `bson:"aggregate"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store is a MongoDB-backed store.Store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, errors.New("mongostore: uri is required")
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := New(client.Database(opts.Database).Collection(opts.Collection))
	s.client = client
	return s, nil
}

// New wraps an existing collection.
func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll, now: time.Now}
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context, userID string) (domain.Aggregate, error) {
	agg, err := s.load(ctx, userID)
	metrics.ObserveStore(backend, "load", err)
	return agg, err
}

func (s *Store) load(ctx context.Context, userID string) (domain.Aggregate, error) {
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": store.TenantKey(userID)}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Aggregate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return fromDocument(rec.Aggregate)
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, userID string, agg domain.Aggregate) error {
	err := s.save(ctx, userID, agg)
	metrics.ObserveStore(backend, "save", err)
	return err
}

func (s *Store) save(ctx context.Context, userID string, agg domain.Aggregate) error {
	doc, err := toDocument(agg)
	if err != nil {
		return err
	}
	key := store.TenantKey(userID)
	update := bson.M{"$set": bson.M{
		"aggregate": doc,
		"updatedAt": s.now().UTC(),
	}}
	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert: %w", err)
	}
	return nil
}

// Close disconnects a client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// toDocument renders the sanitized aggregate as a BSON document.
func toDocument(agg domain.Aggregate) (bson.M, error) {
	data, err := store.Encode(agg)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("convert aggregate to bson: %w", err)
	}
	return doc, nil
}

// fromDocument is the inverse of toDocument.
func fromDocument(raw bson.Raw) (domain.Aggregate, error) {
	if len(raw) == 0 {
		return domain.Aggregate{}, nil
	}
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert bson to aggregate: %w", err)
	}
	return store.Decode(data)
}
