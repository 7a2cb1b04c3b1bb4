package main

import (
	"context"
	"fmt"
	"io"

	"github.com/amp-labs/amp-fsm/cli"
	"github.com/amp-labs/amp-fsm/fsm"
	ucli "github.com/urfave/cli/v3"
)

const quitChoice = "[quit]"

func doorCmd() *ucli.Command {
	return &ucli.Command{
		Name:  "door",
		Usage: "Walk a lockable door through its states interactively",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:  "name",
				Value: "the shed",
				Usage: "What the door belongs to",
			},
		},
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			return newDoor(cmd.String("name"), stdout(cmd)).run(ctx, cli.NewTerminal())
		},
	}
}

// door wraps a machine whose callbacks close over the door itself.
type door struct {
	name    string
	out     io.Writer
	machine *fsm.Machine
}

func newDoor(name string, out io.Writer) *door {
	d := &door{name: name, out: out}

	d.machine = fsm.New("closed",
		fsm.Events{
			{Name: "open", Src: []string{"closed"}, Dst: "open"},
			{Name: "close", Src: []string{"open"}, Dst: "closed"},
			{Name: "lock", Src: []string{"closed"}, Dst: "locked"},
			{Name: "unlock", Src: []string{"locked"}, Dst: "closed"},
		},
		fsm.Callbacks{
			fsm.On("enter_state", d.enterState),
		},
		fsm.WithName("door"),
	)

	return d
}

func (d *door) enterState(_ context.Context, e *fsm.Event) {
	_, _ = fmt.Fprintf(d.out, "The door of %s is %s\n", d.name, cli.State(e.Dst))
}

func (d *door) run(ctx context.Context, prompter cli.Prompter) error {
	for {
		_, _ = fmt.Fprintln(d.out, cli.Banner(d.name+"\n"+d.machine.Current(), cli.DefaultWidth))

		choices := append(d.machine.AvailableTransitions(), quitChoice)

		choice, err := prompter.Select("What next?", choices)
		if err != nil {
			return err
		}

		if choice == quitChoice {
			leave, err := prompter.Confirm("Leave the door " + d.machine.Current())
			if err != nil {
				return err
			}

			if leave {
				return nil
			}

			continue
		}

		if err := d.machine.Fire(ctx, choice); err != nil {
			_, _ = fmt.Fprintf(d.out, "%s: %s\n", cli.Event(choice), cli.Failure(err))
		}
	}
}
