package main

import (
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/spf13/cobra"
)

// seedCatalogCmd creates the demo SQLite catalog
var seedCatalogCmd = &cobra.Command{
	Use:   "seed-catalog",
	Short: "Create and seed the demo SQLite catalog",
	RunE:  runSeedCatalog,
}

func init() {
	seedCatalogCmd.Flags().String("db", "", "catalog database path (defaults to CATALOG_DB_PATH)")
}

func runSeedCatalog(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = cfg.CatalogDBPath
	}

	repo, err := catalog.NewRepository(path)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		return err
	}

	products, err := repo.ListProducts(cmd.Context())
	if err != nil {
		return err
	}
	for _, p := range products {
		fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-32s %12s  stock %d\n", p.ID, p.Name, catalog.FormatPrice(p.Price), p.Stock)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "catalog ready at %s (%d products)\n", path, len(products))
	return nil
}
