// Package cli описывает команды shorturls: запуск сервиса и клиентские команды к нему.
package cli

import (
	"fmt"
	"os"

	"github.com/SergeiKhy/shorturls/internal/config"
	"github.com/spf13/cobra"
)

const defaultConfigPath = ".env"

type rootOptions struct {
	configPath string
}

// NewRootCmd собирает дерево команд
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "shorturls",
		Short: "URL shortener microservice",
		Long: `shorturls shortens long URLs into time-limited aliases,
redirects visitors and keeps click statistics in memory.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "path to the .env configuration file")

	root.AddCommand(
		newServeCmd(opts),
		newCreateCmd(opts),
		newStatsCmd(opts),
	)

	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// Execute точка входа для main
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
