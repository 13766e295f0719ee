package main

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jason-s-yu/picturepoker/internal/config"
	"github.com/jason-s-yu/picturepoker/internal/database"
	"github.com/jason-s-yu/picturepoker/internal/profile"
)

// newImportProfilesCmd copies a profiles.json file into Postgres.
func newImportProfilesCmd(cfg *config.Config, logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "import-profiles [file]",
		Short: "Copy a profile file into the user_profiles table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			path := cfg.ProfilesPath
			if len(args) == 1 {
				path = args[0]
			}

			profiles, err := profile.LoadFile(path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.EnsureSchema(ctx, pool); err != nil {
				return err
			}
			if err := database.UpsertProfiles(ctx, pool, profiles); err != nil {
				return err
			}
			logger.Infof("imported %d profiles from %s", len(profiles), path)
			return nil
		},
	}
}
