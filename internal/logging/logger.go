// Package logging builds the zerolog logger shared by every unit.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"true"`
	File   string `envconfig:"LOG_FILE"`
}

// New returns a logger writing to out and, when cfg.File is set, also to
// that file. The returned closer releases the file.
func New(cfg Config, out io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, f)
		closer = f
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
