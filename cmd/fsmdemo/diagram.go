package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/amp-labs/amp-fsm/visualizer"
	ucli "github.com/urfave/cli/v3"
)

var errDefinitionRequired = errors.New("definition file path required")

func diagramCmd() *ucli.Command {
	return &ucli.Command{
		Name:      "diagram",
		Aliases:   []string{"viz"},
		Usage:     "Draw the machine described by a YAML or JSON definition file",
		ArgsUsage: "<definition>",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "mermaid",
				Usage:   "Output format: mermaid, dot, png, svg or pdf",
			},
			&ucli.StringFlag{
				Name:  "direction",
				Value: "TD",
				Usage: "Layout direction: TD or LR",
			},
			&ucli.StringFlag{
				Name:  "state",
				Usage: "Highlight this state as the current one",
			},
			&ucli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		},
		Action: diagramAction,
	}
}

func diagramAction(ctx context.Context, cmd *ucli.Command) (err error) {
	if cmd.Args().Len() < 1 {
		return errDefinitionRequired
	}

	def, err := fsm.LoadDefinition(cmd.Args().Get(0))
	if err != nil {
		return err
	}

	w := stdout(cmd)

	if path := cmd.String("out"); path != "" {
		f, createErr := os.Create(path) //nolint:gosec
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}

		defer func() {
			err = errors.Join(err, f.Close())
		}()

		w = f
	}

	return writeDiagram(ctx, w, def, diagramOptions{
		format:    cmd.String("format"),
		direction: cmd.String("direction"),
		state:     cmd.String("state"),
	})
}

type diagramOptions struct {
	format    string
	direction string
	state     string
}

func writeDiagram(ctx context.Context, w io.Writer, def *fsm.Definition, opts diagramOptions) error {
	m := def.Build(nil, fsm.WithMetrics(false))

	if opts.state != "" {
		if err := m.SetState(opts.state); err != nil {
			return err
		}
	}

	vopts := visualizer.DefaultOptions().WithDirection(opts.direction)

	switch format := strings.ToLower(opts.format); format {
	case "mermaid":
		out, err := visualizer.GenerateMermaidWithOptions(m, vopts)
		if err != nil {
			return err
		}

		_, err = io.WriteString(w, out)

		return err
	case "dot", "graphviz":
		out, err := visualizer.GenerateGraphvizWithOptions(m, vopts)
		if err != nil {
			return err
		}

		_, err = io.WriteString(w, out)

		return err
	default:
		out, err := visualizer.GenerateGraphvizWithOptions(m, vopts)
		if err != nil {
			return err
		}

		return visualizer.Render(ctx, out, format, w)
	}
}
