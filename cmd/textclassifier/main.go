// Package main is the entry point for the textclassifier CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixml/textclassifier/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textclassifier",
		Short: "Embedding-based text classification server",
		Long: `textclassifier assigns texts to named categories by comparing sentence
embeddings. The taxonomy is editable at runtime and served over MCP (stdio,
streamable HTTP and SSE) and a REST API.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(classifyCmd())
	cmd.AddCommand(categoriesCmd())
	cmd.AddCommand(downloadModelCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
