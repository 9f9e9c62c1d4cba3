package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/leaf-api/internal/config"
	"github.com/Brownie44l1/leaf-api/internal/model"
)

var catalogForce bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the class catalog side file",
}

var catalogInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the builtin tomato catalog to model.catalog_path",
	Args:  cobra.NoArgs,
	RunE:  runCatalogInit,
}

func init() {
	catalogInitCmd.Flags().BoolVar(&catalogForce, "force", false, "Overwrite an existing catalog")
	catalogCmd.AddCommand(catalogInitCmd)
}

func runCatalogInit(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	path := cfg.Model.CatalogPath

	if _, err := os.Stat(path); err == nil && !catalogForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := model.WriteCatalog(path, model.DefaultCatalog()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d classes to %s\n", model.DefaultCatalog().Len(), path)
	return nil
}
