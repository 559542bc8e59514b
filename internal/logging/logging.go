package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/konorlevich/dealership_api/internal/config"
)

// New builds the process logger. When a log file is configured the output
// goes to stderr and to a size-rotated file.
func New(cfg config.Log) (*log.Logger, io.Closer) {
	l := log.New()
	l.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
		defer l.WithField("log_level", cfg.Level).Warn("unknown log level, falling back to info")
	}
	l.SetLevel(level)

	if cfg.File == "" {
		return l, io.NopCloser(nil)
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	l.SetOutput(io.MultiWriter(os.Stderr, rotated))
	return l, rotated
}
