package main

import (
	"context"
	"fmt"
	"io"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/fsm"
	ucli "github.com/urfave/cli/v3"
)

func simpleCmd() *ucli.Command {
	return &ucli.Command{
		Name:  "simple",
		Usage: "Open and close a door, then try an event that isn't allowed",
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			return runSimple(ctx, stdout(cmd))
		},
	}
}

func runSimple(ctx context.Context, w io.Writer) error {
	m := fsm.New("closed",
		fsm.Events{
			{Name: "open", Src: []string{"closed"}, Dst: "open"},
			{Name: "close", Src: []string{"open"}, Dst: "closed"},
		},
		nil,
		fsm.WithName("simple"),
	)

	_, _ = fmt.Fprintln(w, cli.State(m.Current()))

	for _, event := range []string{"open", "close"} {
		if err := m.Fire(ctx, event); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(w, "%s -> %s\n", cli.Event(event), cli.State(m.Current()))
	}

	// Closing a closed door is rejected and leaves the state alone.
	err := m.Fire(ctx, "close")
	_, _ = fmt.Fprintf(w, "%s: %s\n", cli.Event("close"), cli.Failure(err))

	return nil
}
