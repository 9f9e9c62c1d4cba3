package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/leaf-api/internal/advisory"
	"github.com/Brownie44l1/leaf-api/internal/api"
	"github.com/Brownie44l1/leaf-api/internal/logger"
	"github.com/Brownie44l1/leaf-api/internal/metrics"
	"github.com/Brownie44l1/leaf-api/internal/model"
	"github.com/Brownie44l1/leaf-api/internal/preprocess"
	"github.com/Brownie44l1/leaf-api/internal/upload"
)

// PredictorSource hands out the shared predictor, building it on first use.
type PredictorSource interface {
	Get() *model.Predictor
}

type Handler struct {
	predictors PredictorSource
	store      *upload.Store
	metrics    *metrics.Metrics
	log        logger.Logger
}

func NewHandler(predictors PredictorSource, store *upload.Store, m *metrics.Metrics, log logger.Logger) *Handler {
	return &Handler{
		predictors: predictors,
		store:      store,
		metrics:    m,
		log:        log,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (h *Handler) Diseases(c *gin.Context) {
	c.JSON(http.StatusOK, api.DiseasesResponse(advisory.All()))
}

// Predict stores the uploaded image, classifies it and attaches advisory
// details for the top label.
func (h *Handler) Predict(c *gin.Context) {
	ctx := c.Request.Context()

	fh, err := c.FormFile(api.ImageField)
	if err != nil {
		h.formFileError(c, err)
		return
	}

	h.log.Infof(ctx, "received file: %s, size: %d bytes", fh.Filename, fh.Size)

	path, err := h.store.Save(fh)
	if err != nil {
		if isClientError(err) {
			h.writeError(c, http.StatusBadRequest, err.Error(), err)
			return
		}
		h.writeError(c, http.StatusInternalServerError, "failed to store upload", err)
		return
	}

	start := time.Now()
	tensor, err := preprocess.File(path)
	if err != nil {
		h.writeError(c, http.StatusInternalServerError, "unreadable image", err)
		return
	}

	predictions, err := h.predictors.Get().Predict(tensor)
	if err != nil {
		msg := "prediction failed"
		if errors.Is(err, model.ErrModelNotReady) {
			msg = "model not ready"
		}
		h.writeError(c, http.StatusInternalServerError, msg, err)
		return
	}
	h.metrics.ObserveInference(time.Since(start))

	top := predictions[0].ClassName
	h.metrics.CountPrediction(top)
	h.log.Infof(ctx, "predicted %s (%.4f) for %s", top, predictions[0].Probability, filepath.Base(path))

	c.JSON(http.StatusOK, api.PredictResponse{
		Predictions: predictions,
		Details:     advisory.Lookup(top),
		ImagePath:   filepath.Base(path),
	})
}

// formFileError maps a failed form lookup to the client-facing error. A part
// named "image" with an empty filename is parsed as a plain value, so it
// shows up as a missing file with a value beside it.
func (h *Handler) formFileError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.writeError(c, http.StatusRequestEntityTooLarge, "upload too large", err)
	case c.Request.MultipartForm != nil && len(c.Request.MultipartForm.Value[api.ImageField]) > 0:
		h.writeError(c, http.StatusBadRequest, upload.ErrEmptyFilename.Error(), err)
	default:
		h.writeError(c, http.StatusBadRequest, upload.ErrNoFile.Error(), err)
	}
}

func isClientError(err error) bool {
	return errors.Is(err, upload.ErrNoFile) ||
		errors.Is(err, upload.ErrEmptyFilename) ||
		errors.Is(err, upload.ErrUnsupportedExtension)
}

func (h *Handler) writeError(c *gin.Context, status int, msg string, err error) {
	ctx := c.Request.Context()
	if status >= http.StatusInternalServerError {
		h.log.Errorf(ctx, "%s: %v", msg, err)
	} else {
		h.log.Warnf(ctx, "%s: %v", msg, err)
	}
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: msg})
}
