package types

// Config represents the overall application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Mix       MixConfig       `yaml:"mix" json:"mix"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	ReadTimeout  int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" json:"write_timeout"` // seconds
}

// StorageConfig defines blob store settings
type StorageConfig struct {
	Adapter   string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	CDNPrefix string           `yaml:"cdn_prefix" json:"cdn_prefix"`
	Local     LocalStorageOpts `yaml:"local" json:"local"`
	S3        S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	UseSSL          bool   `yaml:"use_ssl" json:"use_ssl"`
}

// ProvidersConfig holds the two speech-synthesis provider configurations
type ProvidersConfig struct {
	OpenAI     TTSProviderConfig `yaml:"openai" json:"openai"`
	ElevenLabs TTSProviderConfig `yaml:"elevenlabs" json:"elevenlabs"`
}

// TTSProviderConfig configures a TTS provider
type TTSProviderConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	APIKey         string `yaml:"api_key" json:"api_key"`
	Model          string `yaml:"model" json:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// MixConfig configures the asynchronous background-mixing job invoker
type MixConfig struct {
	Enabled            bool   `yaml:"enabled" json:"enabled"`
	FunctionName       string `yaml:"function_name" json:"function_name"`
	Region             string `yaml:"region" json:"region"`
	AccessKeyID        string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey    string `yaml:"secret_access_key" json:"secret_access_key"`
	BackgroundTrackURL string `yaml:"background_track_url" json:"background_track_url"`
}
