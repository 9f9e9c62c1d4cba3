package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/leaf-api/internal/advisory"
	"github.com/Brownie44l1/leaf-api/internal/client"
	"github.com/Brownie44l1/leaf-api/internal/config"
	"github.com/Brownie44l1/leaf-api/internal/logger"
	"github.com/Brownie44l1/leaf-api/internal/model"
	"github.com/Brownie44l1/leaf-api/internal/preprocess"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <image>...",
	Short: "Classify local images without starting the server",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

var (
	uploadServer  string
	uploadTimeout time.Duration
)

var uploadCmd = &cobra.Command{
	Use:   "upload <image>",
	Short: "Send an image to a running server and print its prediction",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

var diseasesCmd = &cobra.Command{
	Use:   "diseases",
	Short: "List the advisory table served by a running server",
	Args:  cobra.NoArgs,
	RunE:  runDiseases,
}

func init() {
	for _, cmd := range []*cobra.Command{uploadCmd, diseasesCmd} {
		cmd.Flags().StringVar(&uploadServer, "server", "http://localhost:8080", "Base URL of the API")
		cmd.Flags().DurationVar(&uploadTimeout, "timeout", 30*time.Second, "Request timeout")
	}
}

type resultRow struct {
	image       string
	predictions []model.Prediction
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	predictor := model.NewPredictor(modelOptions(cfg), log)
	defer predictor.Close()

	rows := make([]resultRow, 0, len(args))
	for _, path := range args {
		tensor, err := preprocess.File(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		predictions, err := predictor.Predict(tensor)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, resultRow{image: filepath.Base(path), predictions: predictions})
	}

	renderPredictions(cmd.OutOrStdout(), rows)
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	c := client.New(uploadServer, uploadTimeout)
	resp, err := c.Predict(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	renderPredictions(cmd.OutOrStdout(), []resultRow{{image: resp.ImagePath, predictions: resp.Predictions}})
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n%s\nTreatment: %s\n", resp.Details.Name, resp.Details.Description, resp.Details.Treatment)
	return nil
}

func runDiseases(cmd *cobra.Command, _ []string) error {
	records, err := client.New(uploadServer, uploadTimeout).Diseases(cmd.Context())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Label", "Name", "Treatment"})
	for _, label := range advisory.Labels {
		if r, ok := records[label]; ok {
			t.AppendRow(table.Row{label, r.Name, r.Treatment})
		}
	}
	t.Render()
	return nil
}

func renderPredictions(w io.Writer, rows []resultRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Image", "#", "Label", "Probability", "Name"})
	for _, r := range rows {
		for i, p := range r.predictions {
			image := ""
			if i == 0 {
				image = r.image
			}
			t.AppendRow(table.Row{image, i + 1, p.ClassName, fmt.Sprintf("%.2f%%", p.Probability*100), advisory.Lookup(p.ClassName).Name})
		}
		t.AppendSeparator()
	}
	t.Render()
}
