// Package mongo stores the chat log in MongoDB, as an alternative to the
// SQLite chat log for deployments that already run a document store.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// ChatLog implements domain.ChatLog on a "chat_log" collection.
type ChatLog struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials uri, pings the primary and ensures the session index.
func Connect(ctx context.Context, uri, database string) (*ChatLog, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if database == "" {
		database = "pathpilot"
	}
	coll := client.Database(database).Collection("chat_log")
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create chat_log index: %w", err)
	}
	return &ChatLog{client: client, collection: coll}, nil
}

// Append inserts a chat record.
func (c *ChatLog) Append(ctx context.Context, rec domain.ChatRecord) error {
	if _, err := c.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert chat record: %w", err)
	}
	return nil
}

// SetFeedback sets the emoji feedback on a record of sessionID.
func (c *ChatLog) SetFeedback(ctx context.Context, sessionID, id, feedback string) error {
	res, err := c.collection.UpdateOne(ctx,
		bson.M{"_id": id, "sessionId": sessionID},
		bson.M{"$set": bson.M{"feedback": feedback}})
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// FeedbackSummary counts feedback emojis across all sessions.
func (c *ChatLog) FeedbackSummary(ctx context.Context) (map[string]int, error) {
	cur, err := c.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"feedback": bson.M{"$ne": ""}}}},
		{{Key: "$group", Value: bson.M{"_id": "$feedback", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate feedback: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Feedback string `bson:"_id"`
		Count    int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode feedback summary: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Feedback] = r.Count
	}
	return out, nil
}

// List returns a session's records, oldest first.
func (c *ChatLog) List(ctx context.Context, sessionID string) ([]domain.ChatRecord, error) {
	cur, err := c.collection.Find(ctx,
		bson.M{"sessionId": sessionID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find chat records: %w", err)
	}
	defer cur.Close(ctx)

	var out []domain.ChatRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode chat records: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (c *ChatLog) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (c *ChatLog) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}
