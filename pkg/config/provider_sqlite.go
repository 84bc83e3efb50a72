package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Provider for SQLite database configuration.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{db: db, dbPath: dbPath}, nil
}

// LoadConfig loads the complete configuration from the database.
func (s *SQLiteProvider) LoadConfig() (*Config, error) {
	cfg := &Config{}

	row := s.db.QueryRow(`
		SELECT listen_addr, postgres_dsn, sqlite_path, debug
		FROM configs WHERE name = 'default'`)
	if err := row.Scan(&cfg.HTTP.ListenAddr, &cfg.Storage.PostgresDSN,
		&cfg.Storage.SQLitePath, &cfg.Debug); err != nil {
		return nil, fmt.Errorf("failed to load config row: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT kind, path FROM sources
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, path string
		if err := rows.Scan(&kind, &path); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		switch kind {
		case "channel_table":
			cfg.Sources.ChannelTables = append(cfg.Sources.ChannelTables, path)
		case "seed_volume":
			cfg.Sources.SeedVolumes = append(cfg.Sources.SeedVolumes, path)
		default:
			return nil, fmt.Errorf("unknown source kind %q", kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if cfg.HTTP.ListenAddr == "" {
		cfg.HTTP.ListenAddr = ":8090"
	}
	return cfg, nil
}

// IsReadOnly reports whether the database can be written.
func (s *SQLiteProvider) IsReadOnly() bool { return false }

func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
