package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Simplici0/quickestimate/internal/config"
	"github.com/Simplici0/quickestimate/internal/pricing"
	"github.com/Simplici0/quickestimate/internal/seed"
	"github.com/Simplici0/quickestimate/internal/store"
)

// openStore connects to the configured backend, migrates it and seeds the
// default pricing settings.
func openStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	st, err := store.Open(ctx, c.Options())
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	stats, err := seed.Run(ctx, st, pricing.DefaultSettings())
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	zap.L().Info("store ready",
		zap.String("driver", st.Driver()),
		zap.Int("seed_inserts", stats.Inserts),
		zap.Int("seed_deletes", stats.Deletes),
	)
	return st, nil
}
