package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Summary   SummaryConfig   `mapstructure:"summary"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	URL                   string        `mapstructure:"url"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	Verbose               bool          `mapstructure:"verbose"`
}

// OpenAIConfig contains settings for the hosted model provider
type OpenAIConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	Model               string        `mapstructure:"model"`
	EmbeddingModel      string        `mapstructure:"embedding_model"`
	EmbeddingDimensions int           `mapstructure:"embedding_dimensions"`
	TranscribeModel     string        `mapstructure:"transcribe_model"`
	Temperature         float32       `mapstructure:"temperature"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

// SummaryConfig contains lecture summarization settings
type SummaryConfig struct {
	MaxTranscriptChars int `mapstructure:"max_transcript_chars"`
}

// IngestionConfig contains ingestion pipeline settings
type IngestionConfig struct {
	MaxChunkChars int           `mapstructure:"max_chunk_chars"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
}

// StorageConfig contains upload storage settings
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
}
