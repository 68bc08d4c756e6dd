// Package logging builds the zap logger shared by the CLI and the TUI. The
// TUI owns the terminal, so logs go to a file unless a writer is supplied.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orest-d/liquer/internal/errdef"
)

type Options struct {
	File   string
	Level  string
	Writer io.Writer
}

// New returns a JSON logger writing to opts.Writer or opts.File. With
// neither set, it returns a no-op logger. The returned close function
// flushes the logger and closes the file.
func New(opts Options) (*zap.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		sink    zapcore.WriteSyncer
		closeFn = func() error { return nil }
	)
	switch {
	case opts.Writer != nil:
		sink = zapcore.AddSync(opts.Writer)
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, errdef.Wrap(errdef.CodeFilesystem, err, "create log dir")
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errdef.Wrap(errdef.CodeFilesystem, err, "open log file")
		}
		sink = zapcore.AddSync(f)
		closeFn = f.Close
	default:
		return zap.NewNop(), closeFn, nil
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, zap.NewAtomicLevelAt(level))
	logger := zap.New(core, zap.AddCaller())

	return logger, func() error {
		_ = logger.Sync()
		return closeFn()
	}, nil
}

func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel, errdef.Wrap(errdef.CodeConfig, err, "log level %q", s)
	}
	return level, nil
}
