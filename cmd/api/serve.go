package main

import (
	"github.com/spf13/cobra"

	"github.com/photomaton/service/internal/config"
	"github.com/photomaton/service/internal/server"
)

func serveCMD() *cobra.Command {
	var addr string
	var cfgPath string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return server.Run(cfg, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default :$PORT)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (yaml, json or toml)")

	return serve
}
