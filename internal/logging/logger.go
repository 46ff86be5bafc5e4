// Package logging provides config-driven categorized logging for aipm.
// Every category shares one zap logger; the category is attached as a field
// so output can be filtered per subsystem. Until Initialize or SetBase is
// called all loggers are no-ops, which keeps library use and tests silent.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup and configuration
	CategoryAPI          Category = "api"          // Completion service calls
	CategoryEvaluation   Category = "evaluation"   // Per-rule evaluation
	CategoryScheduler    Category = "scheduler"    // Group batching
	CategoryArticulation Category = "articulation" // Model output -> verdicts
	CategoryDocument     Category = "document"     // Document extraction
	CategoryStore        Category = "store"        // Report history
	CategoryWatch        Category = "watch"        // File watching
)

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	Level      string          // debug, info, warn, error
	Format     string          // json, console
	File       string          // optional extra output path
	Categories map[string]bool // explicit false disables a category
}

// Logger is a printf-style logger bound to a category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	loggers    = make(map[Category]*Logger)
)

// Initialize builds the shared zap logger from cfg and installs it.
// The returned logger is the same one used by Get.
func Initialize(cfg Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if strings.EqualFold(cfg.Format, "json") {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zcfg.Level = lvl
	zcfg.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zcfg.OutputPaths = append(zcfg.OutputPaths, cfg.File)
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	mu.Lock()
	categories = cfg.Categories
	mu.Unlock()
	SetBase(logger)

	return logger, nil
}

// SetBase installs l as the shared logger. Passing nil restores the no-op logger.
func SetBase(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	base = l
	loggers = make(map[Category]*Logger)
}

// Base returns the shared zap logger.
func Base() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Base().Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled.
// Categories not named in the config are enabled.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	enabled, ok := categories[string(category)]
	return !ok || enabled
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	z := base
	if enabled, ok := categories[string(category)]; ok && !enabled {
		z = zap.NewNop()
	}
	l := &Logger{
		category: category,
		sugar:    z.With(zap.String("category", string(category))).Sugar(),
	}
	loggers[category] = l
	return l
}

// Category returns the logger's category.
func (l *Logger) Category() Category { return l.category }

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a child logger carrying structured key-value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// =============================================================================
// CATEGORY SHORTCUTS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func API(format string, args ...interface{})      { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debug(format, args...) }
func APIError(format string, args ...interface{}) { Get(CategoryAPI).Error(format, args...) }

func Evaluation(format string, args ...interface{})      { Get(CategoryEvaluation).Info(format, args...) }
func EvaluationDebug(format string, args ...interface{}) { Get(CategoryEvaluation).Debug(format, args...) }
func EvaluationWarn(format string, args ...interface{})  { Get(CategoryEvaluation).Warn(format, args...) }

func Scheduler(format string, args ...interface{})      { Get(CategoryScheduler).Info(format, args...) }
func SchedulerDebug(format string, args ...interface{}) { Get(CategoryScheduler).Debug(format, args...) }

func ArticulationDebug(format string, args ...interface{}) {
	Get(CategoryArticulation).Debug(format, args...)
}
func ArticulationWarn(format string, args ...interface{}) {
	Get(CategoryArticulation).Warn(format, args...)
}

func Document(format string, args ...interface{})      { Get(CategoryDocument).Info(format, args...) }
func DocumentDebug(format string, args ...interface{}) { Get(CategoryDocument).Debug(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

func Watch(format string, args ...interface{})      { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }
func WatchWarn(format string, args ...interface{})  { Get(CategoryWatch).Warn(format, args...) }

// =============================================================================
// TIMER
// =============================================================================

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

// StartTimer starts timing operation under category.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.operation, elapsed)
	return elapsed
}

// StopWithThreshold logs at warn level when elapsed exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s slow: %v (threshold %v)", t.operation, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.operation, elapsed)
	}
	return elapsed
}
