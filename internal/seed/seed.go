package seed

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Simplici0/quickestimate/internal/pricing"
)

// Target is the persistence surface the startup seed needs.
type Target interface {
	EnsureSettings(ctx context.Context, defaults pricing.Settings) (bool, error)
	PruneExpiredSessions(ctx context.Context) (int64, error)
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Deletes int
}

// Run executes the startup seed in an idempotent way. An existing settings
// record is never overwritten.
func Run(ctx context.Context, target Target, defaults pricing.Settings) (Stats, error) {
	stats := Stats{}

	if err := ensureSettings(ctx, target, defaults, &stats); err != nil {
		return Stats{}, err
	}
	if err := pruneSessions(ctx, target, &stats); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func ensureSettings(ctx context.Context, target Target, defaults pricing.Settings, stats *Stats) error {
	inserted, err := target.EnsureSettings(ctx, defaults)
	if err != nil {
		return eris.Wrap(err, "seed: ensure settings")
	}
	if inserted {
		stats.Inserts++
	}
	return nil
}

func pruneSessions(ctx context.Context, target Target, stats *Stats) error {
	n, err := target.PruneExpiredSessions(ctx)
	if err != nil {
		return eris.Wrap(err, "seed: prune expired sessions")
	}
	stats.Deletes += int(n)
	return nil
}
