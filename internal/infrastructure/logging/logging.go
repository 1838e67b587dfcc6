package logging

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/oghmai/internal/infrastructure/config"
)

type entryKey struct{}

// NewLogger builds a configured logrus logger from application config.
func NewLogger(cfg *config.Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// WithEntry returns a copy of ctx carrying the request-scoped log entry.
func WithEntry(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, entryKey{}, entry)
}

// WithFields adds fields to the entry carried by ctx.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return WithEntry(ctx, FromContext(ctx).WithFields(fields))
}

// FromContext returns the entry stored in ctx, falling back to the standard logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(entryKey{}).(*logrus.Entry); ok && entry != nil {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
