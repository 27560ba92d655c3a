// Package redis mirrors per-session XP into a global Redis ZSET so sessions
// can see where they stand among every PathPilot user.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the sorted-set key used when none is configured.
const DefaultKey = "pathpilot:xp"

// Entry is one ranked session on the global board.
type Entry struct {
	SessionID string `json:"session_id"`
	XP        int    `json:"xp"`
	Rank      int    `json:"rank"`
}

// ScoreBoard is a ZSET-backed global leaderboard.
type ScoreBoard struct {
	client *redis.Client
	key    string
}

// Dial connects to addr (host:port, optionally with a redis:// prefix) and
// pings the server.
func Dial(ctx context.Context, addr, password string, db int, key string) (*ScoreBoard, error) {
	if strings.HasPrefix(addr, "redis://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return connect(ctx, redis.NewClient(opts), key)
	}
	return connect(ctx, redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), key)
}

func connect(ctx context.Context, client *redis.Client, key string) (*ScoreBoard, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, key), nil
}

// New wraps an existing client.
func New(client *redis.Client, key string) *ScoreBoard {
	if key == "" {
		key = DefaultKey
	}
	return &ScoreBoard{client: client, key: key}
}

// Record sets the session's XP.
func (b *ScoreBoard) Record(ctx context.Context, sessionID string, xp int) error {
	return b.client.ZAdd(ctx, b.key, redis.Z{
		Score:  float64(xp),
		Member: sessionID,
	}).Err()
}

// GlobalRank returns the session's 1-based rank, or -1 if it has no score.
func (b *ScoreBoard) GlobalRank(ctx context.Context, sessionID string) (int64, error) {
	rank, err := b.client.ZRevRank(ctx, b.key, sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	return rank + 1, nil
}

// Top returns the n highest-scoring sessions.
func (b *ScoreBoard) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	results, err := b.client.ZRevRangeWithScores(ctx, b.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = Entry{SessionID: member, XP: int(z.Score), Rank: i + 1}
	}
	return entries, nil
}

// Close closes the client.
func (b *ScoreBoard) Close() error {
	return b.client.Close()
}

// Ping checks the server is reachable.
func (b *ScoreBoard) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
