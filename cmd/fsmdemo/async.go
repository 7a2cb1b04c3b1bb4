package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/fsm"
	ucli "github.com/urfave/cli/v3"
)

func asyncCmd() *ucli.Command {
	return &ucli.Command{
		Name:  "async",
		Usage: "Hold a transition open from a leave callback and complete it later",
		Flags: []ucli.Flag{
			&ucli.DurationFlag{
				Name:  "delay",
				Value: 0,
				Usage: "How long the pending transition stays open before it is completed",
			},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			return runAsync(ctx, stdout(cmd), cmd.Duration("delay"))
		},
	}
}

func runAsync(ctx context.Context, w io.Writer, delay time.Duration) error {
	m := fsm.New("start",
		fsm.Events{{Name: "run", Src: []string{"start"}, Dst: "end"}},
		fsm.Callbacks{
			fsm.On("leave_start", func(_ context.Context, e *fsm.Event) {
				e.Async()
			}),
		},
		fsm.WithName("async"),
	)

	_, _ = fmt.Fprintln(w, cli.State(m.Current()))

	err := m.Fire(ctx, "run")
	if !fsm.IsAsync(err) {
		return fmt.Errorf("expected an async transition, got: %w", err)
	}

	_, _ = fmt.Fprintf(w, "%s: %s (still %s)\n", cli.Event("run"), cli.Pending(err.Error()), cli.State(m.Current()))

	// Anything else is refused while the transition is pending.
	if err := m.Fire(ctx, "run"); err != nil {
		_, _ = fmt.Fprintf(w, "%s: %s\n", cli.Event("run"), cli.Failure(err))
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}

	if err := m.CompleteTransition(ctx); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "completed -> %s\n", cli.State(m.Current()))

	return nil
}
