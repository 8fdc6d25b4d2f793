package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/photomaton/service/internal/config"
	"github.com/photomaton/service/internal/db"
)

func migrateCMD() *cobra.Command {
	var cfgPath string

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the session database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set; sessions are stored on disk")
			}
			return db.Migrate(cfg.DatabaseURL)
		},
	}
	migrate.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (yaml, json or toml)")

	return migrate
}
