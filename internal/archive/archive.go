// Package archive persists check_mission results to MongoDB so the text
// report can be replayed later without re-running the pipeline. This is an
// external collaborator's persistence, not engine state.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
)

const collectionName = "heimdall.checks"

// Record is the document shape stored for one check_mission call.
type Record struct {
	CheckID     string         `bson:"check_id"`
	PrimaryID   string         `bson:"primary_id"`
	Cleared     bool           `bson:"cleared"`
	Metrics     engine.Metrics `bson:"metrics"`
	RiskScores  []float64      `bson:"risk_scores"`
	ReportText  string         `bson:"report_text"`
	ArchivedAt  time.Time      `bson:"archived_at"`
}

// Archive wraps a Mongo client scoped to the heimdall.checks collection.
type Archive struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials Mongo at uri and pings it.
func Connect(uri string) (*Archive, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("archive: connect to %s: %w", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("archive: ping: %w", err)
	}

	return &Archive{
		client:     client,
		collection: client.Database("heimdall").Collection(collectionName),
	}, nil
}

// Close disconnects from Mongo.
func (a *Archive) Close(ctx context.Context) error {
	if err := a.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("archive: disconnect: %w", err)
	}
	return nil
}

// Save stores one check_mission outcome, keyed by a generated check id, and
// returns that id for later lookup.
func (a *Archive) Save(ctx context.Context, primaryID, reportText string, result engine.Result) (string, error) {
	checkID := uuid.New().String()
	scores := make([]float64, len(result.Conflicts))
	for i, c := range result.Conflicts {
		scores[i] = c.RiskScore
	}
	record := Record{
		CheckID:    checkID,
		PrimaryID:  primaryID,
		Cleared:    result.Cleared,
		Metrics:    result.Metrics,
		RiskScores: scores,
		ReportText: reportText,
		ArchivedAt: time.Now().UTC(),
	}
	if _, err := a.collection.InsertOne(ctx, record); err != nil {
		return "", fmt.Errorf("archive: insert: %w", err)
	}
	return checkID, nil
}

// LatestReport returns the most recently archived report text for
// primaryID, or ("", mongo.ErrNoDocuments) if none exists.
func (a *Archive) LatestReport(ctx context.Context, primaryID string) (string, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "archived_at", Value: -1}})
	var record Record
	if err := a.collection.FindOne(ctx, bson.M{"primary_id": primaryID}, opts).Decode(&record); err != nil {
		return "", err
	}
	return record.ReportText, nil
}

// RecentSamples returns the Metrics and conflict risk scores of the last
// limit archived checks, newest first, as raw material for percentile
// summaries.
func (a *Archive) RecentSamples(ctx context.Context, limit int64) (metrics []engine.Metrics, riskScores []float64, err error) {
	opts := options.Find().SetSort(bson.D{{Key: "archived_at", Value: -1}}).SetLimit(limit)
	cursor, err := a.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("archive: find: %w", err)
	}
	defer cursor.Close(ctx)

	var records []Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, nil, fmt.Errorf("archive: decode: %w", err)
	}

	metrics = make([]engine.Metrics, 0, len(records))
	for _, r := range records {
		metrics = append(metrics, r.Metrics)
		riskScores = append(riskScores, r.RiskScores...)
	}
	return metrics, riskScores, nil
}
