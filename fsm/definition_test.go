package fsm_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/amp-labs/amp-fsm/fsmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doorYAML = `
name: door
initial: closed
events:
  - name: open
    src: [closed]
    dst: open
  - name: close
    src: [open]
    dst: closed
`

const doorJSON = `{
  "name": "door",
  "initial": "closed",
  "events": [
    {"name": "open", "src": ["closed"], "dst": "open"},
    {"name": "close", "src": ["open"], "dst": "closed"}
  ]
}`

func TestLoadDefinitionFromBytes(t *testing.T) {
	t.Parallel()

	def, err := fsm.LoadDefinitionFromBytes([]byte(doorYAML))
	require.NoError(t, err)

	assert.Equal(t, "door", def.Name)
	assert.Equal(t, "closed", def.Initial)
	assert.Equal(t, fsm.Events{
		{Name: "open", Src: []string{"closed"}, Dst: "open"},
		{Name: "close", Src: []string{"open"}, Dst: "closed"},
	}, def.Events)

	rec := fsmtest.NewRecorder()
	m := def.Build(rec.Callbacks("enter_state"), fsm.WithMetrics(false))

	assert.Equal(t, "door", m.Name())
	require.NoError(t, m.Fire(context.Background(), "open"))
	fsmtest.RequireState(t, m, "open")
	assert.Equal(t, []string{"enter_state"}, rec.Names())
}

func TestLoadDefinitionFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "door.yaml")
	jsonPath := filepath.Join(dir, "door.json")

	require.NoError(t, os.WriteFile(yamlPath, []byte(doorYAML), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(doorJSON), 0o600))

	fromYAML, err := fsm.LoadDefinition(yamlPath)
	require.NoError(t, err)

	fromJSON, err := fsm.LoadDefinition(jsonPath)
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromJSON)

	_, err = fsm.LoadDefinition(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestLoadDefinitionFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"machines/door.yaml": &fstest.MapFile{Data: []byte(doorYAML)},
	}

	def, err := fsm.LoadDefinitionFromFS(fsys, "machines/door.yaml")
	require.NoError(t, err)
	assert.Equal(t, "door", def.Name)

	_, err = fsm.LoadDefinitionFromFS(fsys, "machines/window.yaml")
	require.Error(t, err)
}

func TestDefinitionValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		def     fsm.Definition
		wantErr []error
	}{
		{
			name: "valid",
			def: fsm.Definition{
				Name:    "ok",
				Initial: "a",
				Events:  fsm.Events{{Name: "go", Src: []string{"a"}, Dst: "b"}},
			},
		},
		{
			name:    "missing name and initial",
			def:     fsm.Definition{},
			wantErr: []error{fsm.ErrDefinitionNameRequired, fsm.ErrInitialStateRequired},
		},
		{
			name: "broken events",
			def: fsm.Definition{
				Name:    "broken",
				Initial: "a",
				Events:  fsm.Events{{Src: []string{"a"}, Dst: "b"}, {Name: "go", Src: []string{"a"}}},
			},
			wantErr: []error{fsm.ErrEventNameRequired, fsm.ErrEventDstRequired},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.def.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)

				return
			}

			for _, want := range tt.wantErr {
				require.ErrorIs(t, err, want)
			}
		})
	}
}

func TestLoadDefinitionInvalid(t *testing.T) {
	t.Parallel()

	_, err := fsm.LoadDefinitionFromBytes([]byte("name: [unterminated"))
	require.Error(t, err)

	_, err = fsm.LoadDefinitionFromBytes([]byte("name: door\n"))
	require.ErrorIs(t, err, fsm.ErrInitialStateRequired)

	_, err = fsm.LoadDefinitionFromJSON([]byte("{"))
	require.Error(t, err)
}
