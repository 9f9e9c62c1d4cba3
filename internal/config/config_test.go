package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes != 16*1024*1024 {
		t.Errorf("MaxUploadBytes = %d, want 16 MiB", cfg.Server.MaxUploadBytes)
	}
	if diff := cmp.Diff([]string{"png", "jpg", "jpeg"}, cfg.Upload.AllowedExtensions); diff != "" {
		t.Errorf("AllowedExtensions mismatch:\n%s", diff)
	}
	if cfg.Model.Device != "auto" {
		t.Errorf("Model.Device = %q, want auto", cfg.Model.Device)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LEAFSCAN_SERVER_PORT", "9090")
	t.Setenv("LEAFSCAN_MODEL_DEVICE", "cpu")
	t.Setenv("LEAFSCAN_UPLOAD_DIR", "/tmp/leaf-uploads")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Model.Device != "cpu" {
		t.Errorf("Model.Device = %q, want cpu", cfg.Model.Device)
	}
	if cfg.Upload.Dir != "/tmp/leaf-uploads" {
		t.Errorf("Upload.Dir = %q", cfg.Upload.Dir)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "7000"
upload:
  allowed_extensions: [".PNG", "Jpg"]
model:
  preload: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("Server.Port = %q, want 7000", cfg.Server.Port)
	}
	if diff := cmp.Diff([]string{"png", "jpg"}, cfg.Upload.AllowedExtensions); diff != "" {
		t.Errorf("AllowedExtensions mismatch:\n%s", diff)
	}
	if !cfg.Model.Preload {
		t.Error("Model.Preload = false, want true")
	}
}

func TestLoad_InvalidDevice(t *testing.T) {
	t.Setenv("LEAFSCAN_MODEL_DEVICE", "tpu")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown device")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnsureDirs(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Upload.Dir = filepath.Join(t.TempDir(), "a", "b")
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	if st, err := os.Stat(cfg.Upload.Dir); err != nil || !st.IsDir() {
		t.Fatalf("upload dir not created: %v", err)
	}
}
