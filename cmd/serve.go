package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/playcall/internal/cache"
	"github.com/pable/playcall/internal/server"
)

const dialTimeout = 5 * time.Second

var serveCorpus string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve situation analysis over HTTP",
	Long: `Load a corpus and answer analysis requests over HTTP.

Endpoints:
  GET  /health
  POST /api/v1/analyze       {"quarter":1,"down":1,"toGo":10,"yardLine":50,"minutes":7,"seconds":30}
  GET  /api/v1/index/stats

Results are cached in Redis when --redis-url (or PLAYCALL_REDIS_URL) is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveCorpus, "corpus", "", "corpus to serve (default: the only stored corpus)")
	f.String("listen", ":8080", "listen address")
	f.String("redis-url", "", "redis URL for the result cache, e.g. redis://localhost:6379/0")
	f.Duration("cache-ttl", 0, "result cache TTL (default 10m)")
	f.StringSlice("cors-origins", nil, "allowed CORS origins (default any)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore()
	if err != nil {
		return err
	}
	corpus, err := loadCorpus(db, serveCorpus)
	db.Close()
	if err != nil {
		return err
	}

	opts := server.Options{
		Strategy:    cfg.Strategy,
		CorsOrigins: cfg.CorsOrigins,
	}
	if cfg.RedisURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		rc, err := cache.Dial(dialCtx, cfg.RedisURL, cfg.CacheTTL)
		cancel()
		if err != nil {
			return fmt.Errorf("connect cache: %w", err)
		}
		defer rc.Close()
		opts.Cache = rc
		logrus.WithField("ttl", cfg.CacheTTL).Info("result cache enabled")
	}

	return server.New(corpus, opts).ListenAndServe(ctx, cfg.Listen)
}
