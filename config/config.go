// Package config builds the run configuration from the environment and
// per-site YAML override files. A .env file in the working directory is
// loaded first when present, so local runs and CI share the same
// variable names.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fwojciec/siteport"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix namespaces all recognized environment variables.
const envPrefix = "SITEPORT_"

// FromEnv returns the default configuration with environment
// overrides applied. A missing .env file is not an error.
func FromEnv() siteport.Config {
	_ = godotenv.Load()

	cfg := siteport.DefaultConfig()
	cfg.Headless = envBool("HEADLESS", cfg.Headless)
	cfg.PageTimeout = envDuration("PAGE_TIMEOUT", cfg.PageTimeout)
	cfg.SettleTime = envDuration("SETTLE_TIME", cfg.SettleTime)
	cfg.FetchInterval = envFloat("FETCH_INTERVAL", cfg.FetchInterval)
	cfg.FetchRetries = envInt("FETCH_RETRIES", cfg.FetchRetries)
	cfg.AssetRetries = envInt("ASSET_RETRIES", cfg.AssetRetries)
	cfg.ImagesEnabled = envBool("IMAGES", cfg.ImagesEnabled)
	cfg.AssetTimeout = envDuration("ASSET_TIMEOUT", cfg.AssetTimeout)
	cfg.AssetConcurrency = envInt("ASSET_CONCURRENCY", cfg.AssetConcurrency)
	cfg.MinContentLength = envInt("MIN_CONTENT_LENGTH", cfg.MinContentLength)
	cfg.DealerSlug = envString("DEALER_SLUG", cfg.DealerSlug)
	cfg.UploadYear = envString("UPLOAD_YEAR", cfg.UploadYear)
	cfg.UploadMonth = envString("UPLOAD_MONTH", cfg.UploadMonth)
	cfg.UploadBase = envString("UPLOAD_BASE", cfg.UploadBase)

	if out := envString("OUT_DIR", ""); out != "" {
		cfg.CaptureDir = filepath.Join(out, "capture")
		cfg.AssetDir = filepath.Join(out, "assets")
		cfg.CleanDir = filepath.Join(out, "clean")
		cfg.ExportDir = filepath.Join(out, "export")
	}
	return cfg
}

// LoadOverrides reads a per-site override file. Returns ENOTFOUND when
// the file does not exist so callers can treat overrides as optional.
func LoadOverrides(path string) (*siteport.SiteOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, siteport.Errorf(siteport.ENOTFOUND, "override file %s not found", path)
		}
		return nil, err
	}
	var overrides siteport.SiteOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, siteport.Errorf(siteport.EINVALID, "parsing %s: %v", path, err)
	}
	return &overrides, nil
}

func envString(name, fallback string) string {
	if v := os.Getenv(envPrefix + name); v != "" {
		return v
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(name string, fallback int) int {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(name string, fallback float64) float64 {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
