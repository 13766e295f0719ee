package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/picturepoker/internal/cache"
	"github.com/jason-s-yu/picturepoker/internal/config"
	"github.com/jason-s-yu/picturepoker/internal/database"
	"github.com/jason-s-yu/picturepoker/internal/historian"
)

// newHistorianCmd runs the consumer that archives lobby activity from Redis into Postgres.
func newHistorianCmd(cfg *config.Config, logger *logrus.Logger) *cobra.Command {
	var opts historian.Options
	cmd := &cobra.Command{
		Use:   "historian",
		Short: "Archive lobby activity from the Redis queue into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" || cfg.RedisAddr == "" {
				return errors.New("historian needs both DATABASE_URL and REDIS_ADDR")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := database.EnsureSchema(ctx, pool); err != nil {
				return err
			}

			rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
			if err != nil {
				return err
			}
			defer rdb.Close()

			opts.Queue = cfg.ActivityQueue
			historian.New(rdb, database.ActivityStore{Pool: pool}, opts, logger).Run(ctx)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 20, "Records per insert transaction")
	cmd.Flags().DurationVar(&opts.FlushDelay, "flush-delay", 0, "Flush a partial batch after this long (default 500ms)")
	return cmd
}
