// Command fsmdemo runs small state machines that show how the fsm package
// behaves: plain transitions, async transitions held open by a callback,
// an interactive door, concurrent firing and diagram generation.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/amp-labs/amp-fsm/logger"
	"github.com/amp-labs/amp-fsm/shutdown"
	"github.com/amp-labs/amp-fsm/telemetry"
	"github.com/joho/godotenv"
	ucli "github.com/urfave/cli/v3"
)

// Version is set during build using ldflags.
var Version = "dev"

const appName = "fsmdemo"

func main() {
	handler, ctx := shutdown.SetupHandler(context.Background())

	// Flush spans from a pending async demo when interrupted.
	handler.BeforeShutdown(func() {
		if err := telemetry.Shutdown(ctx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	})

	err := newApp().Run(ctx, os.Args)

	handler.Stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *ucli.Command {
	return &ucli.Command{
		Name:    appName,
		Version: Version,
		Usage:   "Run example state machines",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file before configuring logging and telemetry",
			},
			&ucli.StringFlag{
				Name:  "environment",
				Value: "dev",
				Usage: "Deployment environment reported with traces",
			},
			&ucli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at debug level, including every fired event",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*ucli.Command{
			simpleCmd(),
			asyncCmd(),
			doorCmd(),
			raceCmd(),
			diagramCmd(),
		},
	}
}

func setup(ctx context.Context, cmd *ucli.Command) (context.Context, error) {
	if path := cmd.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return ctx, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if _, err := logger.ConfigureLogging(appName, loggingOptions(cmd)...); err != nil {
		return ctx, err
	}

	ctx = logger.WithSubsystem(ctx, appName)

	config, err := telemetry.LoadConfigFromEnv(ctx, cmd.String("environment"))
	if err != nil {
		return ctx, err
	}

	if err := telemetry.Initialize(ctx, config); err != nil {
		return ctx, err
	}

	// Once log export is up, every record also goes to the collector.
	if telemetry.LogsEnabled() {
		opts := append(loggingOptions(cmd), logger.WithHandler(telemetry.Handler(appName)))
		if _, err := logger.ConfigureLogging(appName, opts...); err != nil {
			return ctx, err
		}
	}

	return ctx, nil
}

func loggingOptions(cmd *ucli.Command) []logger.Option {
	opts := []logger.Option{logger.WithOutput(stderr(cmd))}
	if cmd.Bool("verbose") {
		opts = append(opts, logger.WithMinLevel(slog.LevelDebug))
	}

	return opts
}

func teardown(ctx context.Context, _ *ucli.Command) error {
	if err := telemetry.Shutdown(ctx); err != nil {
		slog.Warn("telemetry shutdown failed", "error", err)
	}

	return nil
}

func stdout(cmd *ucli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

func stderr(cmd *ucli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}

	return os.Stderr
}
