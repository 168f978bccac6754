package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/visionvoice/visionvoice/pkg/types"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the configuration file.
// It also supports environment variable overrides with VV_ prefix.
func Load(configPath string) (*types.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg types.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Storage.Adapter != "local" && cfg.Storage.Adapter != "s3" {
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	if cfg.Storage.Adapter == "local" {
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	}

	if cfg.Storage.Adapter == "s3" {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	}

	// Providers are validated lazily at construction, but a provider enabled
	// without credentials is a configuration error worth failing early on.
	if cfg.Providers.OpenAI.Enabled && cfg.Providers.OpenAI.APIKey == "" {
		return fmt.Errorf("openai provider enabled but api_key is not configured")
	}
	if cfg.Providers.ElevenLabs.Enabled && cfg.Providers.ElevenLabs.APIKey == "" {
		return fmt.Errorf("elevenlabs provider enabled but api_key is not configured")
	}

	if cfg.Mix.Enabled && cfg.Mix.FunctionName == "" {
		return fmt.Errorf("mix enabled but function_name is not configured")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Environment variables are prefixed with VV_ (VisionVoice).
func applyEnvOverrides(cfg *types.Config) {
	// Server overrides
	if val := os.Getenv("VV_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("VV_SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.Server.Port)
	}

	// Storage overrides
	if val := os.Getenv("VV_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("VV_STORAGE_CDN_PREFIX"); val != "" {
		cfg.Storage.CDNPrefix = val
	}
	if val := os.Getenv("VV_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("VV_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("VV_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("VV_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("VV_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("VV_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}

	// Provider credentials
	if val := os.Getenv("VV_OPENAI_API_KEY"); val != "" {
		cfg.Providers.OpenAI.APIKey = val
	}
	if val := os.Getenv("VV_OPENAI_ENDPOINT"); val != "" {
		cfg.Providers.OpenAI.Endpoint = val
	}
	if val := os.Getenv("VV_ELEVENLABS_API_KEY"); val != "" {
		cfg.Providers.ElevenLabs.APIKey = val
	}
	if val := os.Getenv("VV_ELEVENLABS_ENDPOINT"); val != "" {
		cfg.Providers.ElevenLabs.Endpoint = val
	}

	// Mixing job overrides
	if val := os.Getenv("VV_MIX_FUNCTION_NAME"); val != "" {
		cfg.Mix.FunctionName = val
	}
	if val := os.Getenv("VV_MIX_REGION"); val != "" {
		cfg.Mix.Region = val
	}
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15,
			WriteTimeout: 300,
		},
		Storage: types.StorageConfig{
			Adapter:   "local",
			CDNPrefix: "http://localhost:8080/media",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/visionvoice/storage",
			},
		},
		Providers: types.ProvidersConfig{
			OpenAI: types.TTSProviderConfig{
				Endpoint:       "https://api.openai.com/v1",
				Model:          "tts-1",
				TimeoutSeconds: 60,
			},
			ElevenLabs: types.TTSProviderConfig{
				Endpoint:       "https://api.elevenlabs.io/v1",
				Model:          "eleven_turbo_v2_5",
				TimeoutSeconds: 60,
			},
		},
	}
}
