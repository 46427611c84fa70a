package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// baseWriter is where new loggers write. Stdout is reserved for report
// output; logs always go to stderr.
var baseWriter io.Writer = os.Stderr

// SetupCLI configures global logging for command-line runs: human-readable
// console lines on stderr, debug level opt-in
func SetupCLI(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	baseWriter = zerolog.ConsoleWriter{Out: os.Stderr}
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(component string) *Logger {
	logger := zerolog.New(baseWriter).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for analysis operations

func (l *Logger) LogResourceSkipped(ctx context.Context, resourceID, reason string) {
	l.WithContext(ctx).Warn().
		Str("resource_id", resourceID).
		Str("reason", reason).
		Msg("resource skipped")
}

func (l *Logger) LogCollaboratorError(ctx context.Context, collaborator string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("collaborator", collaborator).
		Msg("collaborator call failed")
}
