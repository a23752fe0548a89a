package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"photo-journal/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	PhotoDir       string
	DatabaseDir    string
	Port           string
	MetricsPort    string
	MetricsEnabled bool

	IndexOnStart  bool
	IndexInterval time.Duration

	PageSize         int
	ThumbnailSize    int
	ThumbnailQuality int
	ThumbnailCacheMB int
	PrefetchWindow   int
	PrefetchBatch    int
	DateRestriction  bool

	LogHealthChecks bool

	// Derived
	DatabasePath string
}

// Validate reports configuration values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize))
	}
	if c.ThumbnailSize <= 0 {
		errs = append(errs, fmt.Errorf("THUMBNAIL_SIZE must be positive, got %d", c.ThumbnailSize))
	}
	if c.ThumbnailQuality < 1 || c.ThumbnailQuality > 100 {
		errs = append(errs, fmt.Errorf("THUMBNAIL_QUALITY must be in 1..100, got %d", c.ThumbnailQuality))
	}
	if c.ThumbnailCacheMB <= 0 {
		errs = append(errs, fmt.Errorf("THUMBNAIL_CACHE_MB must be positive, got %d", c.ThumbnailCacheMB))
	}
	if c.PrefetchWindow <= 0 {
		errs = append(errs, fmt.Errorf("PREFETCH_WINDOW must be positive, got %d", c.PrefetchWindow))
	}
	if c.PrefetchBatch <= 0 || c.PrefetchBatch > c.PrefetchWindow {
		errs = append(errs, fmt.Errorf("PREFETCH_BATCH must be in 1..PREFETCH_WINDOW, got %d", c.PrefetchBatch))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must be set"))
	}
	if c.MetricsEnabled && c.MetricsPort == c.Port {
		errs = append(errs, fmt.Errorf("METRICS_PORT must differ from PORT (%s)", c.Port))
	}
	return errors.Join(errs...)
}

// fromEnv reads every setting with its default. It has no side effects.
func fromEnv() (*Config, error) {
	photoDir, err := filepath.Abs(getEnv("PHOTO_DIR", "/photos"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve photo directory path: %w", err)
	}
	databaseDir, err := filepath.Abs(getEnv("DATABASE_DIR", "/database"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	return &Config{
		PhotoDir:         photoDir,
		DatabaseDir:      databaseDir,
		Port:             getEnv("PORT", "8080"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		IndexOnStart:     getEnvBool("INDEX_ON_START", true),
		IndexInterval:    getEnvDuration("INDEX_INTERVAL", 30*time.Minute),
		PageSize:         getEnvInt("PAGE_SIZE", 20),
		ThumbnailSize:    getEnvInt("THUMBNAIL_SIZE", 256),
		ThumbnailQuality: getEnvInt("THUMBNAIL_QUALITY", 70),
		ThumbnailCacheMB: getEnvInt("THUMBNAIL_CACHE_MB", 64),
		PrefetchWindow:   getEnvInt("PREFETCH_WINDOW", 60),
		PrefetchBatch:    getEnvInt("PREFETCH_BATCH", 12),
		DateRestriction:  getEnvBool("DATE_RESTRICTION", false),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", false),
		DatabasePath:     filepath.Join(databaseDir, "journal.db"),
	}, nil
}

// LoadConfig loads configuration from the environment, logs it, validates
// it and prepares the directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	config, err := fromEnv()
	if err != nil {
		return nil, err
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  PHOTO_DIR:           %s", config.PhotoDir)
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  INDEX_ON_START:      %v", config.IndexOnStart)
	logging.Info("  INDEX_INTERVAL:      %v", config.IndexInterval)
	logging.Info("  PAGE_SIZE:           %d", config.PageSize)
	logging.Info("  THUMBNAIL_SIZE:      %d", config.ThumbnailSize)
	logging.Info("  THUMBNAIL_QUALITY:   %d", config.ThumbnailQuality)
	logging.Info("  THUMBNAIL_CACHE_MB:  %d", config.ThumbnailCacheMB)
	logging.Info("  PREFETCH_WINDOW:     %d", config.PrefetchWindow)
	logging.Info("  PREFETCH_BATCH:      %d", config.PrefetchBatch)
	logging.Info("  DATE_RESTRICTION:    %v", config.DateRestriction)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	// A missing photo directory is not fatal; the library is just empty.
	if err := ensureDirectory(config.PhotoDir, "photo"); err != nil {
		logging.Warn("  Photo directory issue: %v", err)
	}
	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	return config, nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(interval time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Index interval: %v", interval)
}

// LogSessionInit logs the gallery session parameters.
func LogSessionInit(id string, pageSize, maxSelection int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("GALLERY SESSION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Session:        %s", id)
	logging.Info("  Page size:      %d", pageSize)
	logging.Info("  Max selection:  %d", maxSelection)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: pathTemplate, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, group := range keys {
		name := group
		if name == "" {
			name = "root"
		}
		logging.Debug("  [%s]", name)
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup returns the first path segment, or api/<segment> for API
// routes.
func getRouteGroup(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)
	first := parts[0]
	if first == "api" && len(parts) > 1 {
		return "api/" + strings.SplitN(parts[1], "/", 2)[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Application:     http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __           __                              __
   / __ \/ /_  ____  / /_____     / /___  __  ___________  ____ _/ /
  / /_/ / __ \/ __ \/ __/ __ \   / / __ \/ / / / ___/ __ \/ __ '/ /
 / ____/ / / / /_/ / /_/ /_/ /  / / /_/ / /_/ / /  / / / / /_/ / /
/_/   /_/ /_/\____/\__/\____/  /_/\____/\__,_/_/  /_/ /_/\__,_/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
