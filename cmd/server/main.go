// cmd/server/main.go
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/picturepoker/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd := &cobra.Command{
		Use:   "picturepoker",
		Short: "Lobby and matchmaking server for PicturePoker",
		Long: `picturepoker runs the multiplayer lobby server: websocket lobbies at
/lobbies/{code}, matchmaking at /searchingforplayers and the discovery API under /api.

Every flag falls back to its environment variable, then to a built-in default.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			level, _ := logrus.ParseLevel(cfg.LogLevel)
			logger.SetLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg, logger)
		},
		SilenceUsage: true,
	}

	defaults, err := config.Load()
	if err != nil {
		logger.Warnf("ignoring malformed environment: %v", err)
	}
	cfg = defaults

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port (env: PORT)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (env: LOG_LEVEL)")
	flags.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Evict empty lobbies idle this long (env: LOBBY_IDLE_TIMEOUT)")
	flags.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Lobby cleanup period (env: LOBBY_SWEEP_INTERVAL)")
	flags.IntVar(&cfg.BotCount, "bots", cfg.BotCount, "Stand-in bots per lobby (env: LOBBY_BOT_COUNT)")
	flags.BoolVar(&cfg.RandomizeBet, "randomize-bet", cfg.RandomizeBet, "Re-roll the bet every round (env: LOBBY_RANDOMIZE_BET)")
	flags.IntVar(&cfg.MaxBet, "max-bet", cfg.MaxBet, "Upper bound for randomized bets (env: LOBBY_MAX_BET)")
	flags.StringVar(&cfg.ProfilesPath, "profiles", cfg.ProfilesPath, "Profile file used without a database (env: PROFILES_PATH)")
	flags.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres URL for profiles (env: DATABASE_URL)")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the activity log (env: REDIS_ADDR)")

	rootCmd.AddCommand(newImportProfilesCmd(&cfg, logger))
	rootCmd.AddCommand(newHistorianCmd(&cfg, logger))
	return rootCmd
}
