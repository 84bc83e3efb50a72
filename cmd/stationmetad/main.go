package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/quakehub/stationmeta/internal/app"
	"github.com/quakehub/stationmeta/internal/log"
	"github.com/quakehub/stationmeta/pkg/config"
)

func main() {
	var configPath string
	var debug bool
	flag.StringVar(&configPath, "config", "stationmeta.yaml", "path to YAML config file or SQLite config database")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	if err := log.Init(debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var provider config.Provider
	var err error
	if strings.HasSuffix(configPath, ".db") || strings.HasSuffix(configPath, ".sqlite") {
		provider, err = config.NewSQLiteProvider(configPath)
		if err != nil {
			log.Errorf("opening config database: %v", err)
			os.Exit(1)
		}
	} else {
		provider = config.NewYAMLProvider(configPath)
	}
	defer provider.Close()

	a := app.New(provider, log.GetSugaredLogger())
	if err := a.Run(context.Background()); err != nil {
		log.Errorf("application error: %v", err)
		os.Exit(1)
	}
}
