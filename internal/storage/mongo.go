package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/law-makers/harvest/pkg/models"
)

// Mongo writes one document per record into a collection
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongo connects to uri and verifies the connection
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Name identifies the sink in logs
func (s *Mongo) Name() string { return "mongodb" }

// SaveRecords inserts the records of one run
func (s *Mongo) SaveRecords(ctx context.Context, runID, query string, records []models.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	res, err := s.collection.InsertMany(ctx, recordDocs(runID, query, records, time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("mongodb insert: %w", err)
	}

	log.Debug().Str("run_id", runID).Int("documents", len(res.InsertedIDs)).Msg("Records stored in mongodb")
	return int64(len(res.InsertedIDs)), nil
}

// Close disconnects the client
func (s *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func recordDocs(runID, query string, records []models.Record, at time.Time) []any {
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = bson.D{
			{Key: "run_id", Value: runID},
			{Key: "query", Value: query},
			{Key: "title", Value: r.Title},
			{Key: "price", Value: r.Price},
			{Key: "rating", Value: r.Rating},
			{Key: "review_count", Value: r.ReviewCount},
			{Key: "scraped_at", Value: at},
		}
	}
	return docs
}
