package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Brownie44l1/leaf-api/internal/logger"
)

// Catalog maps a decimal class index ("0", "1", ...) to a disease label.
// It mirrors the on-disk JSON object exactly.
type Catalog map[string]string

var defaultLabels = []string{
	"Tomato_Bacterial_spot",
	"Tomato_Early_blight",
	"Tomato_Late_blight",
	"Tomato_Leaf_Mold",
	"Tomato_Septoria_leaf_spot",
	"Tomato_Spider_mites_Two_spotted_spider_mite",
	"Tomato_Target_Spot",
	"Tomato_Tomato_Yellow_Leaf_Curl_Virus",
	"Tomato_Tomato_mosaic_virus",
	"Tomato_healthy",
}

// DefaultCatalog returns a fresh copy of the builtin 10-class tomato catalog.
func DefaultCatalog() Catalog {
	c := make(Catalog, len(defaultLabels))
	for i, label := range defaultLabels {
		c[strconv.Itoa(i)] = label
	}
	return c
}

func (c Catalog) Len() int { return len(c) }

// Label resolves a class index.
func (c Catalog) Label(idx int) (string, error) {
	label, ok := c[strconv.Itoa(idx)]
	if !ok {
		return "", fmt.Errorf("%w: index %d", ErrCatalogMismatch, idx)
	}
	return label, nil
}

// LoadCatalog reads the catalog at path. When the file is missing or cannot be
// parsed it falls back to DefaultCatalog and tries to write that default back
// to path. It never fails; problems are logged.
func LoadCatalog(path string, log logger.Logger) Catalog {
	ctx := context.Background()

	c, err := readCatalog(path)
	if err == nil {
		log.Infof(ctx, "loaded class catalog from %s (%d classes)", path, c.Len())
		return c
	}

	log.Warnf(ctx, "failed to load class catalog %s, using builtin default: %v", path, err)
	c = DefaultCatalog()
	if werr := WriteCatalog(path, c); werr != nil {
		log.Warnf(ctx, "failed to persist default class catalog: %v", werr)
	} else {
		log.Infof(ctx, "wrote default class catalog to %s", path)
	}
	return c
}

func readCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if c == nil {
		return nil, errors.New("failed to parse catalog: not a JSON object")
	}
	return c, nil
}

// WriteCatalog stores c as JSON at path, creating parent directories.
func WriteCatalog(path string, c Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog dir: %w", err)
	}
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}
