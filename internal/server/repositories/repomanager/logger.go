package repomanager

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/bookmarkauth/internal/logging"
	"github.com/pressly/goose/v3"
)

// Option configures a repository manager.
type Option func(*options)

type options struct {
	log logging.Logger
}

// WithLogger routes migration progress lines to log.
func WithLogger(log logging.Logger) Option {
	return func(o *options) { o.log = log }
}

func newOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// gooseLogger adapts logging.Logger to goose.Logger.
type gooseLogger struct {
	ctx context.Context
	log logging.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(l.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf keeps goose's contract: the process exits.
func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(l.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
	os.Exit(1)
}

func gooseLoggerFor(ctx context.Context, log logging.Logger) goose.Logger {
	if log == nil {
		return goose.NopLogger()
	}
	return gooseLogger{ctx: ctx, log: log}
}
