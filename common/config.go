package common

// ServerConfig holds the stream server configuration loaded from a TOML file.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
	// EncoderWorkers is the encoder pool size (default 2). With more than one
	// worker, frames may go out on the wire in a different order than they
	// were submitted; set it to 1 to keep source order.
	EncoderWorkers int    `toml:"encoder_workers"`
	LogLevel       string `toml:"log_level"`

	// Recording configuration
	Recording RecordingConfig `toml:"recording"`

	// API server configuration
	APIServer APIServerConfig `toml:"api_server"`

	// Metrics configuration
	Metrics MetricsConfig `toml:"metrics"`
}

// ClientConfig holds the stream client configuration loaded from a TOML file.
type ClientConfig struct {
	ServerAddr string `toml:"server_addr"`
	// DecoderWorkers is the decoder pool size (default 4). With more than one
	// worker, frames may be reconstructed and published out of arrival order;
	// set it to 1 to keep order.
	DecoderWorkers int    `toml:"decoder_workers"`
	LogLevel       string `toml:"log_level"`

	// Metrics configuration
	Metrics MetricsConfig `toml:"metrics"`
}

// APIServerConfig holds the admin HTTP API configuration.
type APIServerConfig struct {
	ListenAddr   string `toml:"listen_addr"`
	StaticDir    string `toml:"static_dir"`
	DatabasePath string `toml:"database_path"`
}

// RecordingConfig holds archive recording configuration.
type RecordingConfig struct {
	Enabled   bool   `toml:"enabled"`
	Directory string `toml:"directory"`
	FPS       int    `toml:"fps"`
}

// MetricsConfig holds the metrics endpoint configuration.
type MetricsConfig struct {
	Enabled    bool   `toml:"enabled"`
	ListenAddr string `toml:"listen_addr"`
}
