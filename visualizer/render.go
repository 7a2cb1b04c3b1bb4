package visualizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
)

// DotBinary is the Graphviz executable used by Render.
const DotBinary = "dot"

var (
	// ErrUnsupportedFormat is returned when Render is asked for a format it doesn't know.
	ErrUnsupportedFormat = errors.New("unsupported render format")

	// ErrRenderFailed is returned when the Graphviz process exits non-zero.
	ErrRenderFailed = errors.New("graphviz render failed")
)

var renderFormats = map[string]struct{}{ //nolint:gochecknoglobals
	"png": {},
	"svg": {},
	"pdf": {},
}

// Render pipes a DOT document through the Graphviz dot binary and writes the
// rendered image to out. format is one of png, svg or pdf.
func Render(ctx context.Context, dot string, format string, out io.Writer) error {
	format = strings.ToLower(format)
	if _, ok := renderFormats[format]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	path, err := exec.LookPath(DotBinary)
	if err != nil {
		return fmt.Errorf("graphviz not installed: %w", err)
	}

	var stderr bytes.Buffer

	c := exec.CommandContext(ctx, path, "-T"+format)
	c.Stdin = strings.NewReader(dot)
	c.Stdout = out
	c.Stderr = &stderr

	slog.Debug("run cmd", "cmd", strings.Join(c.Args, " "))

	return status(c.Run(), stderr.String())
}

func status(err error, stderr string) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: exit %d: %s", ErrRenderFailed, exitErr.ExitCode(), strings.TrimSpace(stderr))
	}

	return err
}
