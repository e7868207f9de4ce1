package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger builds a slog.Logger writing to w through a charmbracelet/log
// handler configured by l.
func NewLogger(w io.Writer, l Log) (*slog.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}
	switch strings.ToLower(l.Format) {
	case "", "text":
		opts.Formatter = log.TextFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	case "json":
		opts.Formatter = log.JSONFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", l.Format)
	}
	return slog.New(log.NewWithOptions(w, opts)), nil
}
