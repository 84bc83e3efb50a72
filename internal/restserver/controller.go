// Package restserver exposes the metadata query operations over HTTP:
// best-channel selection, composite response evaluation and flattened
// station listings. The inventory it serves is immutable, so handlers
// run without locking.
package restserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/quakehub/stationmeta/pkg/config"
	"github.com/quakehub/stationmeta/pkg/meta"
	"github.com/quakehub/stationmeta/pkg/wireformat"
)

// Controller represents the REST server controller.
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	cfg       config.HTTPConfig
	Server    http.Server
	inventory *meta.Inventory
	formatter *wireformat.Formatter
	logger    *zap.SugaredLogger
}

// NewController creates a new REST server controller serving one
// inventory.
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg config.HTTPConfig, inv *meta.Inventory, logger *zap.SugaredLogger) *Controller {
	c := &Controller{
		ctx:       ctx,
		wg:        wg,
		cfg:       cfg,
		inventory: inv,
		formatter: wireformat.NewFormatter(),
		logger:    logger,
	}

	router := mux.NewRouter()
	router.Use(c.requestIDMiddleware)
	router.HandleFunc("/api/channels", c.handleChooseChannels).Methods(http.MethodGet)
	router.HandleFunc("/api/stations", c.handleFlatStations).Methods(http.MethodGet)
	router.HandleFunc("/api/response/{net}/{sta}/{loc}/{cha}", c.handleResponse).Methods(http.MethodGet)
	router.HandleFunc("/api/health", c.handleHealth).Methods(http.MethodGet)

	c.Server = http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return c
}

// Start runs the HTTP server and shuts it down when the controller
// context is cancelled.
func (c *Controller) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Errorf("REST server shutdown: %v", err)
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logger.Infof("REST server listening on %s", c.cfg.ListenAddr)
		if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Errorf("REST server: %v", err)
		}
	}()
}

// requestIDMiddleware tags every request with an ID for log correlation.
func (c *Controller) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		c.logger.Debugf("request %s: %s %s", requestID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (c *Controller) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.writeData(w, r, map[string]any{
		"status":   "ok",
		"networks": len(c.inventory.NetworkCodes()),
		"stations": len(c.inventory.StationCodes()),
	}, http.StatusOK)
}

func (c *Controller) writeData(w http.ResponseWriter, r *http.Request, data any, status int) {
	if err := c.formatter.WriteResponse(w, r, data, status); err != nil {
		c.logger.Errorf("writing response: %v", err)
	}
}
