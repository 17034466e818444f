package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cfg.DBURL == "" {
				return errors.New("empty DB_URL in environment")
			}
			db, err := openDB(cmd.Context(), cfg.DBURL)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrateDB(cmd.Context(), db, logger)
		},
	}
}
