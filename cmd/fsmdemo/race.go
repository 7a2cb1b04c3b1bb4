package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/fsm"
	ucli "github.com/urfave/cli/v3"
	"go.uber.org/atomic"
)

func raceCmd() *ucli.Command {
	return &ucli.Command{
		Name:  "race",
		Usage: "Fire async toggles from many goroutines and count who got through",
		Flags: []ucli.Flag{
			&ucli.IntFlag{Name: "workers", Value: 8, Usage: "Concurrent workers"},
			&ucli.IntFlag{Name: "fires", Value: 100, Usage: "Total toggle attempts"},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			result, err := runRace(ctx, int(cmd.Int("workers")), int(cmd.Int("fires")))
			if err != nil {
				return err
			}

			result.print(stdout(cmd))

			return nil
		},
	}
}

type raceResult struct {
	Completed int64
	Rejected  int64
	Final     string
}

func (r raceResult) print(w io.Writer) {
	_, _ = fmt.Fprintf(w, "completed=%d rejected=%d final=%s\n", r.Completed, r.Rejected, cli.State(r.Final))
}

// runRace toggles a door whose every transition is held open by a leave
// callback. The worker that parked a transition completes it; workers that
// arrive in between are turned away with InTransitionError.
func runRace(ctx context.Context, workers, fires int) (raceResult, error) {
	m := fsm.New("closed",
		fsm.Events{
			{Name: "toggle", Src: []string{"closed"}, Dst: "open"},
			{Name: "toggle", Src: []string{"open"}, Dst: "closed"},
		},
		fsm.Callbacks{
			fsm.On("leave_state", func(_ context.Context, e *fsm.Event) {
				e.Async()
			}),
		},
		fsm.WithName("race"),
	)

	completed := atomic.NewInt64(0)
	rejected := atomic.NewInt64(0)

	pool := pond.NewPool(max(workers, 1), pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()

	for range fires {
		group.SubmitErr(func() error {
			err := m.Fire(ctx, "toggle")

			var inTransition fsm.InTransitionError

			switch {
			case fsm.IsAsync(err):
				if err := m.CompleteTransition(ctx); err != nil {
					return err
				}

				completed.Inc()
			case errors.As(err, &inTransition):
				rejected.Inc()
			default:
				return fmt.Errorf("unexpected fire result: %w", err)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return raceResult{}, err
	}

	return raceResult{
		Completed: completed.Load(),
		Rejected:  rejected.Load(),
		Final:     m.Current(),
	}, nil
}
