// Package logging provides categorized file-based logging for inkwell.
// Logs are written to .inkwell/logs/inkwell.log as structured JSON.
// Logging is controlled by logging.debug_mode in the config - when false,
// all loggers are no-ops.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies the subsystem writing a log entry.
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup and wiring
	CategoryUI        Category = "ui"        // Chat interface and widgets
	CategoryStore     Category = "store"     // Session history store
	CategoryAuth      Category = "auth"      // Account state
	CategoryUsage     Category = "usage"     // Quota tracking
	CategoryConfig    Category = "config"    // Config loading and watching
	CategoryTelemetry Category = "telemetry" // Event emission
	CategoryLLM       Category = "llm"       // LLM API calls
)

var (
	mu      sync.RWMutex
	root    *zap.Logger = zap.NewNop()
	loggers             = make(map[Category]*zap.SugaredLogger)
)

// Initialize sets up file logging under the workspace dot-dir.
// Should be called once at startup. When debug is false the package stays
// a silent no-op, matching production behavior.
func Initialize(workspace string, debug bool) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	if !debug {
		return nil
	}

	logsDir := filepath.Join(workspace, ".inkwell", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(logsDir, "inkwell.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)

	mu.Lock()
	root = zap.New(core)
	loggers = make(map[Category]*zap.SugaredLogger)
	mu.Unlock()

	Get(CategoryBoot).Infof("inkwell logging initialized: workspace=%s", workspace)
	return nil
}

// Get returns the sugared logger for a category. Safe before Initialize;
// entries are dropped until file logging is set up.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[cat]; ok {
		return l
	}
	l := root.Named(string(cat)).Sugar()
	loggers[cat] = l
	return l
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}
