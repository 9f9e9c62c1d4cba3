package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LEAFSCAN_SERVER_PORT.
const EnvPrefix = "LEAFSCAN"

// MaxUploadBytes is the default request body cap (16 MiB).
const MaxUploadBytes = 16 << 20

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Upload UploadConfig `mapstructure:"upload"`
	Model  ModelConfig  `mapstructure:"model"`
}

type AppConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port" validate:"required,numeric"`
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes" validate:"gt=0"`
}

type UploadConfig struct {
	Dir               string   `mapstructure:"dir" validate:"required"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" validate:"min=1,dive,required"`
}

type ModelConfig struct {
	// Path is the ONNX weight file. A missing file is not an error.
	Path        string `mapstructure:"path" validate:"required"`
	CatalogPath string `mapstructure:"catalog_path" validate:"required"`
	Device      string `mapstructure:"device" validate:"oneof=auto cpu cuda"`
	// RuntimeLibrary points at libonnxruntime; empty uses the runtime's default lookup.
	RuntimeLibrary string `mapstructure:"runtime_library"`
	InputName      string `mapstructure:"input_name" validate:"required"`
	OutputName     string `mapstructure:"output_name" validate:"required"`
	// Preload builds the predictor at startup instead of on the first request.
	Preload bool `mapstructure:"preload"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "leaf-api")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_bytes", MaxUploadBytes)

	v.SetDefault("upload.dir", "data/uploads")
	v.SetDefault("upload.allowed_extensions", []string{"png", "jpg", "jpeg"})

	v.SetDefault("model.path", "model/tomato_disease_model.onnx")
	v.SetDefault("model.catalog_path", "model/class_mapping.json")
	v.SetDefault("model.device", "auto")
	v.SetDefault("model.runtime_library", "")
	v.SetDefault("model.input_name", "input")
	v.SetDefault("model.output_name", "output")
	v.SetDefault("model.preload", false)
}

// Load reads configuration from defaults, an optional .env file, an optional
// YAML file and LEAFSCAN_* environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env failed: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	for i, ext := range cfg.Upload.AllowedExtensions {
		cfg.Upload.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags on every section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EnsureDirs creates the upload directory.
func (c *Config) EnsureDirs() error {
	if err := os.MkdirAll(c.Upload.Dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir %s: %w", c.Upload.Dir, err)
	}
	return nil
}
