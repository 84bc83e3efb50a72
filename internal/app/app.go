// Package app wires configuration, metadata sources, persistence and
// the REST service into the stationmetad process.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/quakehub/stationmeta/internal/log"
	"github.com/quakehub/stationmeta/internal/restserver"
	"github.com/quakehub/stationmeta/internal/seedvol"
	"github.com/quakehub/stationmeta/internal/store"
	"github.com/quakehub/stationmeta/pkg/chantab"
	"github.com/quakehub/stationmeta/pkg/config"
	"github.com/quakehub/stationmeta/pkg/meta"
)

// App represents the main application
type App struct {
	configProvider config.Provider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.Provider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if cfg.Debug {
		if err := log.Init(true); err != nil {
			return fmt.Errorf("enabling debug logging: %w", err)
		}
		a.logger = log.GetSugaredLogger()
	}

	inventory, err := a.loadInventory(ctx, cfg)
	if err != nil {
		return err
	}
	log.Infof("inventory loaded: %d networks, %d channels",
		len(inventory.Networks), len(inventory.ChannelIDs()))

	if cfg.Storage.PostgresDSN != "" {
		client := store.NewClient(cfg.Storage.PostgresDSN, a.logger)
		if err := client.Connect(); err != nil {
			return err
		}
		if err := client.SaveInventory(inventory); err != nil {
			return fmt.Errorf("archiving inventory: %w", err)
		}
		log.Info("inventory archived")
	}

	rest := restserver.NewController(ctx, &wg, cfg.HTTP, inventory, a.logger)
	rest.Start()

	log.Info("application started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// loadInventory assembles the inventory from the configured sources,
// falling back to the SQLite cache when no sources are named and
// refreshing the cache otherwise.
func (a *App) loadInventory(ctx context.Context, cfg *config.Config) (*meta.Inventory, error) {
	merged := &meta.Inventory{Source: "stationmetad"}

	for _, path := range cfg.Sources.ChannelTables {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening channel table %s: %w", path, err)
		}
		inv, diags, err := chantab.Load(f, chantab.Options{SkipInvalid: true})
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("loading channel table %s: %w", path, err)
		}
		for _, d := range diags {
			log.Warnf("%s: %s", path, d.Message)
		}
		merged.Networks = append(merged.Networks, inv.Networks...)
	}

	for _, path := range cfg.Sources.SeedVolumes {
		networks, err := a.loadSeedVolume(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("loading seed volume %s: %w", path, err)
		}
		merged.Networks = append(merged.Networks, networks...)
	}

	if len(merged.Networks) == 0 && cfg.Storage.SQLitePath != "" {
		cache, err := store.OpenCache(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
		cached, err := cache.LoadInventory()
		if err != nil {
			return nil, err
		}
		log.Infof("inventory loaded from cache %s", cfg.Storage.SQLitePath)
		return cached, nil
	}

	if cfg.Storage.SQLitePath != "" {
		cache, err := store.OpenCache(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
		if err := cache.SaveInventory(merged); err != nil {
			return nil, fmt.Errorf("refreshing cache: %w", err)
		}
	}

	return merged, nil
}

// loadSeedVolume extracts the station summaries of one legacy volume and
// turns them into channel-less station entries, grouped per network.
func (a *App) loadSeedVolume(ctx context.Context, path string) ([]meta.Network, error) {
	vol, err := seedvol.Open(path, a.logger)
	if err != nil {
		return nil, err
	}
	defer vol.Close()

	if err := vol.Unpack(ctx); err != nil {
		return nil, err
	}
	records, err := vol.Stations()
	if err != nil {
		return nil, err
	}

	byNetwork := map[string]*meta.Network{}
	var codes []string
	for _, rec := range records {
		network, ok := byNetwork[rec.Network]
		if !ok {
			network = &meta.Network{Code: rec.Network}
			byNetwork[rec.Network] = network
			codes = append(codes, rec.Network)
		}
		network.Stations = append(network.Stations, meta.Station{
			Code:        rec.Station,
			Latitude:    meta.Float{Value: rec.Latitude},
			Longitude:   meta.Float{Value: rec.Longitude},
			Elevation:   &meta.Float{Value: rec.Elevation},
			Description: rec.Name,
		})
	}

	sort.Strings(codes)
	networks := make([]meta.Network, 0, len(codes))
	for _, code := range codes {
		networks = append(networks, *byNetwork[code])
	}
	return networks, nil
}
