package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/quickestimate/internal/auth"
	"github.com/Simplici0/quickestimate/internal/photos"
)

// visitorIdle is how long a client IP keeps its rate-limit bucket.
const visitorIdle = 10 * time.Minute

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the estimate and lead API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		photoStore, err := photos.New(ctx, cfg.Photos, st.Driver())
		if err != nil {
			return err
		}

		srv := &server{
			store:        st,
			sessions:     auth.NewManager(st, cfg.Auth.SessionTTL()),
			creds:        cfg.Auth.Credentials(),
			cookie:       cookieConfig{Name: cfg.Auth.CookieName, Secure: cfg.Auth.SecureCookie},
			photos:       photoStore,
			limits:       cfg.Photos.Limits(),
			exportPrefix: cfg.Export.FilenamePrefix,
			corsOrigins:  cfg.Server.CORSOrigins,
			limiter:      newIPLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
			now:          time.Now,
			trustProxy:   cfg.Server.TrustProxy,
		}
		if disk, ok := photoStore.(*photos.DiskStorage); ok {
			srv.uploadDir = disk.Dir()
			srv.uploadPrefix = disk.PublicPrefix()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server",
				zap.Int("port", port),
				zap.String("store", st.Driver()),
				zap.String("photos", cfg.Photos.ResolveBackend(st.Driver())),
			)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			timeout := time.Duration(cfg.Server.ShutdownTimeoutSecs) * time.Second
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return eris.Wrap(httpSrv.Shutdown(shutdownCtx), "server shutdown")
		})

		g.Go(func() error {
			srv.maintain(gctx, cfg.Auth.PruneInterval())
			return nil
		})

		return g.Wait()
	},
}

// maintain prunes expired admin sessions and idle rate-limit buckets until
// ctx is done.
func (s *server) maintain(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.Prune(ctx)
			if err != nil {
				zap.L().Warn("prune admin sessions", zap.Error(err))
			} else if n > 0 {
				zap.L().Debug("pruned admin sessions", zap.Int64("count", n))
			}
			if removed := s.limiter.sweep(visitorIdle); removed > 0 {
				zap.L().Debug("swept rate limit buckets", zap.Int("count", removed))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
