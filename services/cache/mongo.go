package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"stock_screener_backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo collection used for cached screen results
const (
	mongoCacheDB         = "screener"
	mongoCacheCollection = "screen_results"
)

// MongoCache is a ResultCache backed by MongoDB with a TTL index, shared
// across instances
type MongoCache struct {
	collection *mongo.Collection
}

// cacheDocument is the stored shape of one cached result. The result is
// kept as JSON so its map keys survive the round trip untouched.
type cacheDocument struct {
	Key        string    `bson:"_id"`
	ResultJSON string    `bson:"result_json"`
	CreatedAt  time.Time `bson:"created_at"`
	ExpiresAt  time.Time `bson:"expires_at"`
}

// NewMongoCache connects to MongoDB and ensures the TTL index exists
func NewMongoCache(ctx context.Context, uri string) (*MongoCache, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("MongoDB ping failed: %w", err)
	}

	collection := client.Database(mongoCacheDB).Collection(mongoCacheCollection)

	// Documents expire at their per-entry expires_at timestamp
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache TTL index: %w", err)
	}

	log.Println("Mongo result cache connected")
	return &MongoCache{collection: collection}, nil
}

// Get returns a cached result if present and unexpired
func (c *MongoCache) Get(ctx context.Context, key string) (*models.ScreenResult, bool) {
	var doc cacheDocument
	err := c.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			log.Printf("Mongo cache read failed for %s: %v", key, err)
		}
		return nil, false
	}
	// The TTL monitor only runs periodically, so double-check expiry
	if time.Now().After(doc.ExpiresAt) {
		return nil, false
	}

	var result models.ScreenResult
	if err := json.Unmarshal([]byte(doc.ResultJSON), &result); err != nil {
		log.Printf("Mongo cache entry %s is corrupt: %v", key, err)
		return nil, false
	}
	return &result, true
}

// Put upserts a result under the key. Writes are idempotent, so concurrent
// writers for the same key are harmless.
func (c *MongoCache) Put(ctx context.Context, key string, result *models.ScreenResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode screen result: %w", err)
	}

	now := time.Now()
	doc := cacheDocument{
		Key:        key,
		ResultJSON: string(payload),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	_, err = c.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}
