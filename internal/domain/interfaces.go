package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Completer is the generative-text service: prompt in, completion out.
// Implemented by infra/llm (Gemini, OpenAI).
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatLog durably appends chat records and their feedback.
// SetFeedback only touches a record owned by sessionID and returns
// ErrRecordNotFound otherwise. Implemented by infra/sqlite and infra/mongo.
type ChatLog interface {
	Append(ctx context.Context, rec ChatRecord) error
	SetFeedback(ctx context.Context, sessionID, id, feedback string) error
	List(ctx context.Context, sessionID string) ([]ChatRecord, error)
}

// SnapshotStore persists engagement state between process restarts.
// Load returns (nil, nil) when no snapshot exists.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, sessionID string, st *EngagementState) error
	LoadSnapshot(ctx context.Context, sessionID string) (*EngagementState, error)
}

// EventPublisher emits engagement events to an external bus.
// Implemented by infra/events (amqp).
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// ScoreBoard mirrors session XP into a global ranking.
// Implemented by infra/redis. GlobalRank is 1-based, -1 when unknown.
type ScoreBoard interface {
	Record(ctx context.Context, sessionID string, xp int) error
	GlobalRank(ctx context.Context, sessionID string) (int64, error)
}

// DocumentArchive stores uploaded resumes. Returns the object key.
// Implemented by infra/objectstore (S3/R2).
type DocumentArchive interface {
	Put(ctx context.Context, filename, mime string, data []byte) (string, error)
}
