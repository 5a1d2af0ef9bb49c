package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kedarnelavelli/payment-service/internal/infra/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "payment-service",
	Short: "Payment lifecycle service",
	Long:  `Creates payment orders and drives them through purchase, authorize, capture, cancel and refund against a card gateway.`,
	// Running without a subcommand starts the server.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yaml, ./configs/config.yaml or /etc/payment-service/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
