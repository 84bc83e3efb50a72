package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/quakehub/stationmeta/pkg/meta"
)

// Cache is a local single-file inventory cache. Unlike the archive
// database it stores each network as one JSON document, which is enough
// for the CLI tools that just want to avoid re-parsing source files.
type Cache struct {
	db   *sql.DB
	path string
}

// OpenCache opens (and if necessary initializes) a cache file.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite cache: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS networks (
			code TEXT PRIMARY KEY,
			document TEXT NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

// SaveInventory replaces the cached document of every network in the
// inventory.
func (c *Cache) SaveInventory(inv *meta.Inventory) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO networks (code, document) VALUES (?, ?)
		ON CONFLICT(code) DO UPDATE SET document = excluded.document`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range inv.Networks {
		doc, err := json.Marshal(&inv.Networks[i])
		if err != nil {
			return fmt.Errorf("serializing network %s: %w", inv.Networks[i].Code, err)
		}
		if _, err := stmt.Exec(inv.Networks[i].Code, string(doc)); err != nil {
			return fmt.Errorf("caching network %s: %w", inv.Networks[i].Code, err)
		}
	}

	return tx.Commit()
}

// LoadInventory reads all cached networks.
func (c *Cache) LoadInventory() (*meta.Inventory, error) {
	rows, err := c.db.Query(`SELECT document FROM networks ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	defer rows.Close()

	inv := &meta.Inventory{Source: "sqlite cache"}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var network meta.Network
		if err := json.Unmarshal([]byte(doc), &network); err != nil {
			return nil, fmt.Errorf("deserializing cached network: %w", err)
		}
		inv.Networks = append(inv.Networks, network)
	}
	return inv, rows.Err()
}

func (c *Cache) Close() error {
	return c.db.Close()
}
