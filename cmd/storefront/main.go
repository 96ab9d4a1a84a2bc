package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront cart and checkout API",
	Long: `Serves the storefront checkout UI API: per-shopper carts persisted to a
key-value store, the demo account and checkout.

Settings come from the environment (HTTP_PORT, KV_BACKEND, CATALOG_SOURCE,
KAFKA_BROKERS, ...).`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, seedCatalogCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
