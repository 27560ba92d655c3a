package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/futurenavigators/pathpilot/internal/daemon"
	"github.com/futurenavigators/pathpilot/internal/domain"
)

// defaultSession is the persistent session used by local commands.
const defaultSession = "local"

var sessionID string

// openSession starts the runtime and makes sure the session exists.
// Callers must Close the returned daemon.
func openSession(ctx context.Context) (*daemon.Daemon, error) {
	d, err := daemon.New(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.Sessions.Open(ctx, sessionID); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// update runs fn against the session state and persists the result.
func update(ctx context.Context, d *daemon.Daemon, fn func(st *domain.EngagementState) error) error {
	return d.Sessions.Update(ctx, sessionID, fn)
}

// stats returns the dashboard view of the session.
func stats(ctx context.Context, d *daemon.Daemon) (domain.Stats, error) {
	var s domain.Stats
	err := d.Sessions.View(ctx, sessionID, func(st *domain.EngagementState) error {
		s = d.Engine.Stats(st)
		return nil
	})
	if err != nil {
		return s, err
	}
	if rank := d.Sessions.GlobalRank(ctx, sessionID); rank > 0 {
		s.GlobalRank = rank
	}
	return s, nil
}

// shortID abbreviates a record id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// resolveRecordID expands an id prefix, as printed by history, to the full
// chat record id.
func resolveRecordID(ctx context.Context, d *daemon.Daemon, prefix string) (string, error) {
	recs, err := d.Advisor.Transcript(ctx, sessionID)
	if err != nil {
		return "", err
	}
	var found []string
	for _, r := range recs {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			found = append(found, r.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("record %q: %w", prefix, domain.ErrRecordNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("record id %q is ambiguous (%d matches)", prefix, len(found))
	}
}
