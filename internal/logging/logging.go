// Package logging builds the logrus logger for an environment.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ohare93/delegate/internal/config"
)

// Setup returns a logger configured for cfg.Env. The returned closer releases
// the log file, if one was opened.
//
//	local: debug, colored text on stderr
//	dev:   info, timestamped text, log_file if set
//	prod:  warn, JSON, log_file if set
//
// log_level overrides the per-environment level.
func Setup(cfg *config.Config) (*logrus.Entry, io.Closer, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	var closer io.Closer = nopCloser{}

	if cfg.LogFile != "" && cfg.Env != config.EnvLocal {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		log.SetOutput(f)
		closer = f
	}

	switch cfg.Env {
	case config.EnvLocal:
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{
			ForceColors:     true,
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
	case config.EnvDev:
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	default:
		log.SetLevel(logrus.WarnLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			closer.Close()
			return nil, nil, fmt.Errorf("invalid log_level: %w", err)
		}
		log.SetLevel(level)
	}

	return logrus.NewEntry(log), closer, nil
}

// Discard returns a logger that drops everything
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
