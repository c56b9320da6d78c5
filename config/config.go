// Package config loads the settings of the redline service and CLI.
//
// Settings come from defaults, then an optional YAML file, then the
// environment (a .env file in the working directory is loaded first).
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultMaxUploadBytes is the total upload size limit (5 GiB).
const DefaultMaxUploadBytes int64 = 5 << 30

type Config struct {
	Server struct {
		Addr           string `yaml:"addr"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	} `yaml:"server"`
	Folders struct {
		Upload string `yaml:"upload"`
		Output string `yaml:"output"`
	} `yaml:"folders"`
	Render struct {
		DPI      int    `yaml:"dpi"`
		Pdftoppm string `yaml:"pdftoppm"`
	} `yaml:"render"`
	Store struct {
		Kind string `yaml:"kind"` // memory or sqlite
		Path string `yaml:"path"`
	} `yaml:"store"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
}

// Default returns the built-in settings.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = ":5000"
	cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	cfg.Folders.Upload = "./uploads"
	cfg.Folders.Output = "./output"
	cfg.Render.DPI = 380
	cfg.Render.Pdftoppm = "pdftoppm"
	cfg.Store.Kind = "memory"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return &cfg
}

// Load reads settings. An empty path or a missing file leaves the defaults
// in place; a file that exists but cannot be parsed is an error.
func Load(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	// 3. Override with Environment Variables if present
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("UPLOAD_FOLDER"); v != "" {
		c.Folders.Upload = v
	}
	if v := os.Getenv("OUTPUT_FOLDER"); v != "" {
		c.Folders.Output = v
	}
	if v := os.Getenv("REDLINE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("REDLINE_DPI"); v != "" {
		dpi, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDLINE_DPI: %w", err)
		}
		c.Render.DPI = dpi
	}
	if v := os.Getenv("REDLINE_DB"); v != "" {
		c.Store.Kind = "sqlite"
		c.Store.Path = v
	}
	if v := os.Getenv("REDLINE_PDFTOPPM"); v != "" {
		c.Render.Pdftoppm = v
	}
	if v := os.Getenv("REDLINE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Render.DPI <= 0 {
		return fmt.Errorf("render.dpi must be positive, got %d", c.Render.DPI)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	switch c.Store.Kind {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store.kind %q", c.Store.Kind)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// NewLogger builds a logger from the log settings, writing to out.
func (c *Config) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	if strings.EqualFold(c.Log.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
