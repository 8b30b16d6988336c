package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// Config represents the configuration of the transform server.
type Config struct {
	Port             uint16   `json:"port"`
	AppDir           string   `json:"appDir"`
	ImportMap        string   `json:"importMap"`
	HelperModule     string   `json:"helperModule"`
	CorsAllowOrigins []string `json:"corsAllowOrigins"`
	CacheSize        int64    `json:"cacheSize"`
	WarnOnError      bool     `json:"warnOnError"`
	AccessLog        bool     `json:"accessLog"`
	LogDir           string   `json:"logDir"`
	LogLevel         string   `json:"logLevel"`
}

// DefaultConfig returns the config that is used when no config file is found.
func DefaultConfig() *Config {
	config := &Config{}
	config.Normalize()
	return config
}

// LoadConfig loads config from the given file.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("fail to read config file: %w", err)
	}
	defer file.Close()

	var config Config
	if err = json.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("fail to parse config: %w", err)
	}
	config.Normalize()
	return &config, nil
}

// Normalize fills in default config values.
func (config *Config) Normalize() {
	if config.Port == 0 {
		config.Port = 8787
	}
	if config.AppDir == "" {
		config.AppDir, _ = os.Getwd()
	} else if !filepath.IsAbs(config.AppDir) {
		config.AppDir, _ = filepath.Abs(config.AppDir)
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 64 << 20 // 64mb of module sources
	}
	if config.LogDir == "" {
		config.LogDir = filepath.Join(os.TempDir(), "dynamic-import-vars-log")
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}
