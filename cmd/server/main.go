// server is the leaf disease inference service and its companion tools.
//
// Usage:
//
//	server serve [--config=config.yaml]
//	server classify <image>...
//	server upload --server=http://localhost:8080 <image>
//	server diseases --server=http://localhost:8080
//	server catalog init [--force]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/leaf-api/internal/config"
	"github.com/Brownie44l1/leaf-api/internal/model"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Tomato leaf disease classification API",
	Long: "Accepts leaf photographs over HTTP, classifies them with a pretrained\n" +
		"network and returns the top predictions with treatment advice.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (optional)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(diseasesCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func modelOptions(cfg *config.Config) model.Options {
	return model.Options{
		ModelPath:      cfg.Model.Path,
		CatalogPath:    cfg.Model.CatalogPath,
		Device:         cfg.Model.Device,
		RuntimeLibrary: cfg.Model.RuntimeLibrary,
		InputName:      cfg.Model.InputName,
		OutputName:     cfg.Model.OutputName,
	}
}
