package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/device-catalog/internal/audit"
	"github.com/nerrad567/device-catalog/internal/device"
	"github.com/nerrad567/device-catalog/internal/infrastructure/config"
	"github.com/nerrad567/device-catalog/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Catalog is the query surface of the device store.
// Satisfied by *device.Store.
type Catalog interface {
	ValidRecords(ctx context.Context) ([]device.Device, error)
	FilterByBrand(ctx context.Context, brand string) ([]device.Device, error)
	FilterByModel(ctx context.Context, model string) ([]device.Device, error)
	FindByFullName(ctx context.Context, fullName string) (device.Device, bool, error)
	GetStats(ctx context.Context) (device.Stats, error)
	Report(ctx context.Context) (device.Report, error)
}

// ConnectionChecker reports broker connectivity. Satisfied by *mqtt.Client.
type ConnectionChecker interface {
	IsConnected() bool
}

// DBStatser exposes connection pool statistics. Satisfied by *database.DB.
type DBStatser interface {
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Catalog Catalog

	// Optional.
	Audit audit.Repository
	MQTT  ConnectionChecker
	DB    DBStatser

	Version string
}

// Server is the HTTP API server for the device catalogue.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	catalog   Catalog
	auditRepo audit.Repository
	mqtt      ConnectionChecker
	db        DBStatser
	version   string
	startedAt time.Time
	server    *http.Server
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("device catalogue is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		catalog:   deps.Catalog,
		auditRepo: deps.Audit,
		mqtt:      deps.MQTT,
		db:        deps.DB,
		version:   deps.Version,
		startedAt: time.Now(),
	}, nil
}

// Handler returns the fully wired router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start launches the HTTP listener in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
