// Package logger configures process-wide structured logging for programs that
// host state machines.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/caarlos0/env/v11"
	charmlog "github.com/charmbracelet/log"
)

// Used for labelling log lines with the part of the system that produced them.
var subsystem atomic.Value //nolint:gochecknoglobals

// configMutex protects concurrent calls to ConfigureLoggingWithOptions,
// which modifies global state (slog.SetDefault, which also redirects the log package).
var configMutex sync.Mutex //nolint:gochecknoglobals

type contextKey string

// ErrInvalidLogOutput is returned when an invalid log output destination is specified.
var ErrInvalidLogOutput = errors.New("invalid log output")

// Options is used to configure logging.
type Options struct {
	Subsystem   string
	JSON        bool
	Pretty      bool
	MinLevel    slog.Level
	LegacyLevel slog.Level
	Output      io.Writer

	// Handlers receive every record in addition to the console handler.
	Handlers []slog.Handler
}

// Option is a functional option for configuring logging via ConfigureLogging.
type Option func(*Options)

// WithOutput overrides the log destination.
func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Output = w
	}
}

// WithHandler adds a handler that receives every record alongside the
// console output, such as an OpenTelemetry log bridge.
func WithHandler(h slog.Handler) Option {
	return func(o *Options) {
		o.Handlers = append(o.Handlers, h)
	}
}

// WithMinLevel overrides the minimum level.
func WithMinLevel(level slog.Level) Option {
	return func(o *Options) {
		o.MinLevel = level
	}
}

// EnvConfig is the logging configuration read from the environment.
type EnvConfig struct {
	JSON        bool       `env:"LOG_JSON"         envDefault:"false"`
	Pretty      bool       `env:"LOG_PRETTY"       envDefault:"false"`
	Level       slog.Level `env:"LOG_LEVEL"        envDefault:"INFO"`
	LegacyLevel slog.Level `env:"LEGACY_LOG_LEVEL" envDefault:"INFO"`
	Output      string     `env:"LOG_OUTPUT"       envDefault:"stdout"`
}

// LoadEnvConfig reads logging configuration from environment variables.
func LoadEnvConfig() (EnvConfig, error) {
	cfg, err := env.ParseAs[EnvConfig]()
	if err != nil {
		return cfg, fmt.Errorf("failed to parse logging environment: %w", err)
	}

	return cfg, nil
}

// ConfigureLogging configures logging for the application from the
// environment and returns the default logger.
func ConfigureLogging(app string, opts ...Option) (*slog.Logger, error) {
	cfg, err := LoadEnvConfig()
	if err != nil {
		return nil, err
	}

	output, err := outputFor(cfg.Output)
	if err != nil {
		return nil, err
	}

	options := Options{
		Subsystem:   app,
		JSON:        cfg.JSON,
		Pretty:      cfg.Pretty,
		MinLevel:    cfg.Level,
		LegacyLevel: cfg.LegacyLevel,
		Output:      output,
	}

	for _, o := range opts {
		o(&options)
	}

	return ConfigureLoggingWithOptions(options), nil
}

func outputFor(name string) (io.Writer, error) {
	switch strings.ToLower(name) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogOutput, name)
	}
}

// NewHandler builds the slog handler described by opts. Pretty output wins
// over JSON.
func NewHandler(opts Options) slog.Handler {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	switch {
	case opts.Pretty:
		return charmlog.NewWithOptions(opts.Output, charmlog.Options{
			ReportTimestamp: opts.MinLevel <= slog.LevelDebug,
			Level:           charmlog.Level(opts.MinLevel),
			Prefix:          opts.Subsystem,
		})
	case opts.JSON:
		return slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{
			Level: opts.MinLevel,
		})
	default:
		return slog.NewTextHandler(opts.Output, &slog.HandlerOptions{
			Level: opts.MinLevel,
		})
	}
}

// ConfigureLoggingWithOptions configures logging for the application and
// returns the default logger. Concurrent calls are serialized.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	handler := NewHandler(opts)
	if len(opts.Handlers) > 0 {
		handler = NewFanoutHandler(append([]slog.Handler{handler}, opts.Handlers...)...)
	}

	logger := slog.New(handler)
	if opts.Subsystem != "" {
		logger = logger.With("subsystem", opts.Subsystem)
	}

	// SetDefault also routes the standard log package through the handler;
	// those lines are logged at LegacyLevel.
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(opts.LegacyLevel)

	subsystem.Store(opts.Subsystem)

	return logger
}

// WithSubsystem adds a subsystem to the context. Loggers obtained through Get
// with this context are labelled with it instead of the default subsystem.
func WithSubsystem(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, contextKey("subsystem"), name)
}

// GetSubsystem returns the subsystem from the context, falling back to the
// one set by ConfigureLogging.
func GetSubsystem(ctx context.Context) string {
	if ctx != nil {
		if name, ok := ctx.Value(contextKey("subsystem")).(string); ok && name != "" {
			return name
		}
	}

	name, _ := subsystem.Load().(string)

	return name
}

// Get returns the default logger labelled with the context's subsystem.
func Get(ctx context.Context) *slog.Logger {
	name := GetSubsystem(ctx)
	if name == "" {
		return slog.Default()
	}

	return slog.Default().With("subsystem", name)
}
