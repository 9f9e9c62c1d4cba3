// Package api holds the JSON bodies exchanged over the HTTP surface.
package api

import (
	"github.com/Brownie44l1/leaf-api/internal/advisory"
	"github.com/Brownie44l1/leaf-api/internal/model"
)

const (
	HealthPath   = "/api/health"
	PredictPath  = "/api/predict"
	DiseasesPath = "/api/diseases"
	MetricsPath  = "/metrics"

	// ImageField is the multipart field carrying the upload.
	ImageField = "image"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type PredictResponse struct {
	Predictions []model.Prediction `json:"predictions"`
	Details     advisory.Record    `json:"details"`
	ImagePath   string             `json:"image_path"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DiseasesResponse map[advisory.Label]advisory.Record
