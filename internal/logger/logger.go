// Package logger wires zerolog for KrishiMitra.
// Named sub-loggers tag every line with a module field so the store, the
// broadcast dispatcher and the refetch hooks can be filtered independently.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Settings controls log output.
type Settings struct {
	Mode       string `json:"mode"`  // "production" | "debug"
	Level      string `json:"level"` // debug | info | warn | error
	File       string `json:"file"`  // empty disables file output
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

var (
	Log       = zerolog.New(os.Stderr).With().Timestamp().Logger()
	Store     = Log.With().Str("module", "store").Logger()
	Broadcast = Log.With().Str("module", "broadcast").Logger()
	Refetch   = Log.With().Str("module", "refetch").Logger()
	HTTP      = Log.With().Str("module", "http").Logger()
	Config    = Log.With().Str("module", "config").Logger()
	Provider  = Log.With().Str("module", "provider").Logger()
)

// Init rebuilds all loggers from cfg. Safe to call once at startup before
// any goroutines log.
func Init(cfg Settings) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var writers []io.Writer
	if strings.EqualFold(cfg.Mode, "debug") {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		writers = append(writers, os.Stderr)
	}
	if cfg.File != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.File), 0o755)
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 20),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 30),
			Compress:   true,
		})
	}

	Log = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	rebuild()
}

// SetOutput redirects every logger to w. Tests use it to capture warnings.
func SetOutput(w io.Writer) {
	Log = zerolog.New(w).With().Timestamp().Logger()
	rebuild()
}

func rebuild() {
	Store = Log.With().Str("module", "store").Logger()
	Broadcast = Log.With().Str("module", "broadcast").Logger()
	Refetch = Log.With().Str("module", "refetch").Logger()
	HTTP = Log.With().Str("module", "http").Logger()
	Config = Log.With().Str("module", "config").Logger()
	Provider = Log.With().Str("module", "provider").Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
