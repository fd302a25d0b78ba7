// SPDX-License-Identifier: MIT

// Package logging builds the logrus loggers used across the module.
//
// Levels follow logrus names (debug, info, warn, error); formats are "text"
// (full timestamps) and "json". The walker logs stabilization checkpoints at
// Debug and drift above its bound at Warn, so "info" keeps runs quiet.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"

	timestampFormat = "2006-01-02 15:04:05"
)

// ErrInvalidFormat indicates an unknown log format.
var ErrInvalidFormat = errors.New("logging: invalid format")

// ErrInvalidLevel indicates an unknown log level.
var ErrInvalidLevel = errors.New("logging: invalid level")

// New returns a logger writing to stderr at the given level and format.
// An empty level means info and an empty format means text.
//
// Errors: ErrInvalidLevel, ErrInvalidFormat.
func New(level, format string) (*logrus.Logger, error) {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}

	return logger, nil
}

// ParseLevel maps a level name to a logrus level; empty means info.
func ParseLevel(level string) (logrus.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	return lvl, nil
}

// Discard returns an entry that drops everything; the default for library code.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return logrus.NewEntry(logger)
}
