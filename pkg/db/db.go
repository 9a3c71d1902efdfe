package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"earnings-transcripts/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by GetTranscript when no record has the key.
var ErrNotFound = errors.New("transcript not found")

// Archive stores copies of successfully retrieved transcripts.
type Archive interface {
	SaveTranscript(ctx context.Context, rec *domain.TranscriptRecord) error
	GetTranscript(ctx context.Context, key string) (*domain.TranscriptRecord, error)
	ListTranscripts(ctx context.Context, ticker string) ([]domain.TranscriptRecord, error)
}

// archivedTranscript is the stored document: the record plus its lookup key.
type archivedTranscript struct {
	Key                     string `bson:"key"`
	domain.TranscriptRecord `bson:",inline"`
}

// Client wraps the MongoDB client and the transcript collection.
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
}

var _ Archive = (*Client)(nil)

// NewClient creates a new database client
func NewClient(connectionString, databaseName, collectionName string) *Client {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Connect() reports the missing client.
		return &Client{}
	}

	database := mongoClient.Database(databaseName)
	return &Client{
		mongoClient: mongoClient,
		database:    database,
		collection:  database.Collection(collectionName),
	}
}

// Connect verifies the connection to MongoDB.
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// SaveTranscript upserts rec under its key (ticker/year/quarter, or source URL
// for direct requests whose identity could not be inferred).
func (c *Client) SaveTranscript(ctx context.Context, rec *domain.TranscriptRecord) error {
	if c.collection == nil {
		return fmt.Errorf("collection not initialized")
	}
	key := rec.Key()
	if key == "" {
		return fmt.Errorf("transcript has neither identity nor source url")
	}

	filter := bson.M{"key": key}
	update := bson.M{"$set": archivedTranscript{Key: key, TranscriptRecord: *rec}}
	opts := options.Update().SetUpsert(true)

	if _, err := c.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("save transcript %s: %w", key, err)
	}
	return nil
}

// GetTranscript returns the archived record for key, or ErrNotFound.
func (c *Client) GetTranscript(ctx context.Context, key string) (*domain.TranscriptRecord, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	var doc archivedTranscript
	err := c.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript %s: %w", key, err)
	}
	return &doc.TranscriptRecord, nil
}

// ListTranscripts returns the archived records for ticker, newest call first.
func (c *Client) ListTranscripts(ctx context.Context, ticker string) ([]domain.TranscriptRecord, error) {
	filter := bson.M{"ticker": strings.ToUpper(strings.TrimSpace(ticker))}
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}, {Key: "quarter", Value: -1}})
	return c.find(ctx, filter, opts)
}

// GetAllTranscripts reads every archived record.
func (c *Client) GetAllTranscripts(ctx context.Context) ([]domain.TranscriptRecord, error) {
	return c.find(ctx, bson.M{}, options.Find())
}

func (c *Client) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.TranscriptRecord, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := c.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.TranscriptRecord
	for cursor.Next(ctx) {
		var doc archivedTranscript
		if err := cursor.Decode(&doc); err != nil {
			continue // Skip invalid documents
		}
		out = append(out, doc.TranscriptRecord)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}
