package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-journal/internal/database"
	"photo-journal/internal/filesystem"
	"photo-journal/internal/gallery"
	"photo-journal/internal/handlers"
	"photo-journal/internal/indexer"
	"photo-journal/internal/logging"
	"photo-journal/internal/media"
	"photo-journal/internal/memory"
	"photo-journal/internal/metrics"
	"photo-journal/internal/middleware"
	"photo-journal/internal/pagination"
	"photo-journal/internal/prefetch"
	"photo-journal/internal/selection"
	"photo-journal/internal/startup"
	"photo-journal/internal/thumbcache"
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	buildInfo := startup.GetBuildInfo()
	metrics.AppInfo.WithLabelValues(buildInfo.Version, buildInfo.Commit, buildInfo.GoVersion).Set(1)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"photos":   config.PhotoDir,
		"database": config.DatabaseDir,
	}))

	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, thumbnails use the pure Go decoder: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	collector := metrics.NewCollector(db, config.DatabasePath, time.Minute)
	collector.Start()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	cache, err := thumbcache.New(media.NewDecoder(db), thumbcache.Options{
		MaxBytes: int64(config.ThumbnailCacheMB) << 20,
		Observer: metrics.NewCacheObserver(),
	})
	if err != nil {
		logging.Fatal("Failed to create thumbnail cache: %v", err)
	}

	session, err := gallery.Open(ctx, gallery.Deps{
		Source: db,
		Used:   db,
		Cache:  cache,
	}, gallery.Config{
		Pagination: pagination.Options{
			PageSize: config.PageSize,
			Observer: metrics.NewPaginationObserver(),
		},
		Prefetch: prefetch.Options{
			Window:    config.PrefetchWindow,
			BatchSize: config.PrefetchBatch,
			Width:     config.ThumbnailSize,
			Height:    config.ThumbnailSize,
			Quality:   config.ThumbnailQuality,
			Throttle:  monitor,
			Observer:  metrics.NewPrefetchObserver(),
		},
		Selection: selection.Options{
			DateRestriction: config.DateRestriction,
			Observer:        metrics.NewSelectionObserver(),
		},
	})
	if err != nil {
		logging.Fatal("Failed to open gallery session: %v", err)
	}
	metrics.GallerySessionsActive.Inc()
	startup.LogSessionInit(session.ID(), config.PageSize, selection.DefaultMaxSelection)

	startup.LogIndexerInit(config.IndexInterval)
	idx := indexer.New(db, config.PhotoDir, config.IndexInterval)
	idx.SetPauser(monitor)
	idx.SetIndexOnStart(config.IndexOnStart)
	idx.SetOnIndexComplete(func(result indexer.Result) {
		if !result.Changed() {
			return
		}
		if err := session.Refresh(ctx); err != nil && ctx.Err() == nil {
			logging.Warn("Failed to refresh gallery after index: %v", err)
		}
	})
	idx.Start(ctx)

	h := handlers.New(session, db, cache, idx, config)
	go h.Events().Run(ctx)

	router := mux.NewRouter()
	if config.MetricsEnabled {
		router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}
	h.RegisterRoutes(router)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           middleware.Logger(loggingConfig)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort, h)
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		handleShutdown(srv, metricsSrv, shutdownComponents{
			cancel:    cancel,
			indexer:   idx,
			session:   session,
			cache:     cache,
			monitor:   monitor,
			collector: collector,
			db:        db,
		})
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Server error: %v", err)
	}
	<-shutdownDone
}

func metricsRouter(health http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", health).Methods("GET", "HEAD")
	return r
}

func startMetricsServer(port string, h *handlers.Handlers) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           metricsRouter(h.LivenessCheck),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

type shutdownComponents struct {
	cancel    context.CancelFunc
	indexer   *indexer.Indexer
	session   *gallery.Session
	cache     *thumbcache.Cache
	monitor   *memory.Monitor
	collector *metrics.Collector
	db        *database.Database
}

func handleShutdown(srv, metricsSrv *http.Server, c shutdownComponents) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping indexer")
	c.indexer.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Closing gallery session")
	c.session.Close()
	metrics.GallerySessionsActive.Dec()
	c.cancel()
	c.cache.Close()
	startup.LogShutdownStepComplete("Gallery session closed")

	c.monitor.Stop()
	c.collector.Stop()
	startup.LogShutdownStepComplete("Background monitors stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing database")
	if err := c.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}
	media.ShutdownVips()

	startup.LogShutdownComplete()
}
