// Package config defines the service configuration and its data
// sources. Providers load the same configuration shape from different
// backends (YAML files, SQLite databases).
package config

// Provider is the interface for configuration data sources.
type Provider interface {
	// LoadConfig loads the complete configuration.
	LoadConfig() (*Config, error)

	// IsReadOnly reports whether the provider can persist changes.
	IsReadOnly() bool

	Close() error
}

// Config is the complete service configuration.
type Config struct {
	HTTP    HTTPConfig    `json:"http" yaml:"http"`
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	Sources SourcesConfig `json:"sources,omitempty" yaml:"sources,omitempty"`
	Debug   bool          `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// HTTPConfig configures the query REST service.
type HTTPConfig struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
}

// StorageConfig holds the optional persistence backends.
type StorageConfig struct {
	// PostgresDSN, when set, enables the archive database.
	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
	// SQLitePath, when set, enables the local inventory cache.
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
}

// SourcesConfig names the metadata inputs loaded at startup.
type SourcesConfig struct {
	// ChannelTables are FDSN channel-level text table files.
	ChannelTables []string `json:"channel_tables,omitempty" yaml:"channel_tables,omitempty"`
	// SeedVolumes are legacy SEED volume files unpacked via rdseed.
	SeedVolumes []string `json:"seed_volumes,omitempty" yaml:"seed_volumes,omitempty"`
}
