// Package app initializes and runs the user profiles service.
// It configures logging, storage, event publishing and both transports,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/userprofiles/internal/config"
	"github.com/patric-chuzhbe/userprofiles/internal/db/jsondb"
	"github.com/patric-chuzhbe/userprofiles/internal/db/memorystorage"
	"github.com/patric-chuzhbe/userprofiles/internal/db/mongodb"
	"github.com/patric-chuzhbe/userprofiles/internal/db/postgresdb"
	"github.com/patric-chuzhbe/userprofiles/internal/db/storage"
	"github.com/patric-chuzhbe/userprofiles/internal/eventqueue"
	"github.com/patric-chuzhbe/userprofiles/internal/events"
	"github.com/patric-chuzhbe/userprofiles/internal/grpcserver"
	"github.com/patric-chuzhbe/userprofiles/internal/logger"
	"github.com/patric-chuzhbe/userprofiles/internal/models"
	"github.com/patric-chuzhbe/userprofiles/internal/router"
	"github.com/patric-chuzhbe/userprofiles/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the configuration, transports, storage backend and
// event publisher of the service.
type App struct {
	cfg          *config.Config
	db           storage.Storage
	events       events.Publisher
	eventQueue   *eventqueue.Queue
	stopQueue    context.CancelFunc
	httpHandler  http.Handler
	grpcServer   *grpc.Server
	grpcListener net.Listener
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and connecting the storage backend
// - creating the event publisher and starting its background queue
// - setting up the HTTP router and, when configured, the gRPC server
func New(configOptions ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(configOptions...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	app.events = events.New(app.cfg.KafkaBrokers, app.cfg.KafkaTopic)

	app.eventQueue = eventqueue.New(
		app.events,
		app.cfg.EventQueueCapacity,
		app.cfg.EventFlushInterval,
	)
	queueRunCtx, stopQueue := context.WithCancel(context.Background())
	app.stopQueue = stopQueue

	app.eventQueue.Run(queueRunCtx)
	app.eventQueue.ListenErrors(func(err error) {
		logger.Log.Warnw("unable to publish user_created events", zap.Error(err))
	})

	svc := service.New(app.db, app.eventQueue)

	app.httpHandler = router.New(svc, app.cfg.CORSAllowedOrigins)

	if app.cfg.GRPCAddr != "" {
		app.grpcServer, app.grpcListener, err = grpcserver.NewGRPCServer(
			app.cfg.GRPCAddr,
			grpcserver.NewProfileHandler(svc),
		)
		if err != nil {
			return nil, errors.Join(err, app.release())
		}
	}

	return app, nil
}

// Run starts the servers with graceful shutdown support.
// It listens for system signals and releases resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx)
}

func (a *App) serve(ctx context.Context) error {
	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr())

	server := &http.Server{
		Addr:    a.cfg.RunAddr(),
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 2)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	if a.grpcServer != nil {
		logger.Log.Infoln("gRPC server running", "GRPCAddr", a.grpcListener.Addr().String())
		go func() {
			serverErrCh <- a.grpcServer.Serve(a.grpcListener)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing connections and exiting...")
		return a.shutdown(server)

	case err := <-serverErrCh:
		return errors.Join(fmt.Errorf("server error: %w", err), a.shutdown(server))
	}
}

func (a *App) shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
	}

	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}

	return errors.Join(shutdownErr, a.release())
}

func (a *App) release() error {
	var errs []error

	if a.stopQueue != nil {
		a.stopQueue()
		<-a.eventQueue.Done()
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event publisher close error: %w", err))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close error: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.MongoDBURI != "" {
		return models.StorageTypeMongoDB
	}

	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	storageType := getAvailableStorageType(cfg)
	logger.Log.Debugw("storage selected", zap.Int("storageType", storageType))

	switch storageType {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypeMongoDB:
		return mongodb.New(
			context.Background(),
			cfg.MongoDBURI,
			cfg.MongoDBDatabase,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
