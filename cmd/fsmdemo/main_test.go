package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/amp-labs/amp-fsm/visualizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSimple(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, runSimple(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "closed")
	assert.Contains(t, out, "open")
	assert.Contains(t, out, "event close inappropriate in current state closed")
}

func TestRunAsync(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, runAsync(context.Background(), &buf, 0))

	out := buf.String()
	assert.Contains(t, out, "async transition started")
	assert.Contains(t, out, "event run inappropriate because previous transition did not complete")
	assert.Contains(t, out, "end")
}

func TestRunAsyncCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	require.ErrorIs(t, runAsync(ctx, &buf, 1e9), context.Canceled)
}

// scriptedPrompter answers Select and Confirm from fixed lists.
type scriptedPrompter struct {
	answers  []string
	confirms []bool
	offered  [][]string
	asked    []string
}

var errOutOfAnswers = errors.New("out of answers")

func (p *scriptedPrompter) Select(_ string, choices []string) (string, error) {
	p.offered = append(p.offered, choices)

	if len(p.answers) == 0 {
		return "", errOutOfAnswers
	}

	answer := p.answers[0]
	p.answers = p.answers[1:]

	return answer, nil
}

func (p *scriptedPrompter) Confirm(label string) (bool, error) {
	p.asked = append(p.asked, label)

	if len(p.confirms) == 0 {
		return false, errOutOfAnswers
	}

	answer := p.confirms[0]
	p.confirms = p.confirms[1:]

	return answer, nil
}

func TestDoor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	d := newDoor("the shed", &buf)
	p := &scriptedPrompter{
		answers:  []string{"lock", "open", "unlock", "open", quitChoice, quitChoice},
		confirms: []bool{false, true},
	}

	require.NoError(t, d.run(context.Background(), p))
	assert.Equal(t, "open", d.machine.Current())
	assert.Equal(t, []string{"Leave the door open", "Leave the door open"}, p.asked)

	require.Len(t, p.offered, 6)
	assert.Equal(t, []string{"lock", "open", quitChoice}, p.offered[0])
	assert.Equal(t, []string{"unlock", quitChoice}, p.offered[1])
	assert.Equal(t, []string{"close", quitChoice}, p.offered[4])
	assert.Equal(t, []string{"close", quitChoice}, p.offered[5])

	out := buf.String()
	assert.Contains(t, out, "The door of the shed is")
	assert.Contains(t, out, "event open inappropriate in current state locked")
}

func TestDoorPromptError(t *testing.T) {
	t.Parallel()

	d := newDoor("the shed", &bytes.Buffer{})
	require.ErrorIs(t, d.run(context.Background(), &scriptedPrompter{}), errOutOfAnswers)

	d = newDoor("the shed", &bytes.Buffer{})
	p := &scriptedPrompter{answers: []string{quitChoice}}
	require.ErrorIs(t, d.run(context.Background(), p), errOutOfAnswers)
	assert.Equal(t, []string{"Leave the door closed"}, p.asked)
}

func TestRunRace(t *testing.T) {
	t.Parallel()

	result, err := runRace(context.Background(), 8, 200)
	require.NoError(t, err)

	assert.Equal(t, int64(200), result.Completed+result.Rejected)
	assert.Positive(t, result.Completed)

	want := "closed"
	if result.Completed%2 == 1 {
		want = "open"
	}

	assert.Equal(t, want, result.Final)

	var buf bytes.Buffer
	result.print(&buf)
	assert.Contains(t, buf.String(), "completed=")
}

func TestWriteDiagram(t *testing.T) {
	t.Parallel()

	def, err := fsm.LoadDefinition(filepath.Join("testdata", "door.yaml"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		opts    diagramOptions
		want    []string
		wantErr error
	}{
		{
			name: "mermaid",
			opts: diagramOptions{format: "mermaid", direction: "LR"},
			want: []string{"direction LR", "[*] --> closed", "closed --> locked: lock"},
		},
		{
			name: "dot with current state",
			opts: diagramOptions{format: "DOT", state: "locked"},
			want: []string{"digraph fsm {", `"locked" [ style="filled"`},
		},
		{
			name:    "unknown state",
			opts:    diagramOptions{format: "dot", state: "ajar"},
			wantErr: fsm.UnknownStateError{State: "ajar"},
		},
		{
			name:    "unsupported format",
			opts:    diagramOptions{format: "gif"},
			wantErr: visualizer.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			err := writeDiagram(context.Background(), &buf, def, tt.opts)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)

			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

//nolint:paralleltest // Replaces the default logger.
func TestApp(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var stdout, stderr bytes.Buffer

	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	require.NoError(t, app.Run(context.Background(), []string{appName, "simple"}))
	assert.Contains(t, stdout.String(), "inappropriate")

	app = newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	out := filepath.Join(t.TempDir(), "door.mmd")
	require.NoError(t, app.Run(context.Background(),
		[]string{appName, "diagram", "--out", out, filepath.Join("testdata", "door.yaml")}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stateDiagram-v2")
}

//nolint:paralleltest // Replaces the default logger.
func TestAppDiagramRequiresPath(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}

	require.ErrorIs(t, app.Run(context.Background(), []string{appName, "diagram"}), errDefinitionRequired)
}

//nolint:paralleltest // Replaces the default logger.
func TestAppVerbose(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	t.Setenv("LOG_LEVEL", "INFO")
	t.Setenv("LOG_JSON", "false")
	t.Setenv("LOG_PRETTY", "false")

	var stdout, stderr bytes.Buffer

	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	require.NoError(t, app.Run(context.Background(), []string{appName, "--verbose", "simple"}))
	assert.Contains(t, stderr.String(), "Event fired")
	assert.Contains(t, stderr.String(), "machine=simple")

	quiet := newApp()
	stderr.Reset()
	quiet.Writer = &stdout
	quiet.ErrWriter = &stderr

	require.NoError(t, quiet.Run(context.Background(), []string{appName, "simple"}))
	assert.NotContains(t, stderr.String(), "Event fired")
}
