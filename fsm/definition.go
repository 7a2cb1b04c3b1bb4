package fsm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is the declarative form of a machine's states and events. It can
// be written by hand or loaded from YAML or JSON:
//
//	name: door
//	initial: closed
//	events:
//	  - name: open
//	    src: [closed]
//	    dst: open
//	  - name: close
//	    src: [open]
//	    dst: closed
type Definition struct {
	Name    string `json:"name"    yaml:"name"`
	Initial string `json:"initial" yaml:"initial"`
	Events  Events `json:"events"  yaml:"events"`
}

// LoadDefinition loads a definition from a YAML or JSON file. Files ending in
// .json are parsed as JSON, everything else as YAML.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file %q: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadDefinitionFromJSON(data)
	}

	return LoadDefinitionFromBytes(data)
}

// LoadDefinitionFromBytes loads a definition from YAML bytes.
func LoadDefinitionFromBytes(data []byte) (*Definition, error) {
	var def Definition

	err := yaml.Unmarshal(data, &def)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = def.Validate()
	if err != nil {
		return nil, err
	}

	return &def, nil
}

// LoadDefinitionFromJSON loads a definition from JSON bytes.
func LoadDefinitionFromJSON(data []byte) (*Definition, error) {
	var def Definition

	err := json.Unmarshal(data, &def)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	err = def.Validate()
	if err != nil {
		return nil, err
	}

	return &def, nil
}

// LoadDefinitionFromFS loads a YAML definition from a filesystem such as embed.FS.
func LoadDefinitionFromFS(fsys fs.FS, path string) (*Definition, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition from FS: %w", err)
	}

	return LoadDefinitionFromBytes(data)
}

// Validate reports every structural problem of the definition at once.
// New itself accepts anything; this is for definitions coming from files.
func (d *Definition) Validate() error {
	var errs []error

	if d.Name == "" {
		errs = append(errs, ErrDefinitionNameRequired)
	}

	if d.Initial == "" {
		errs = append(errs, ErrInitialStateRequired)
	}

	for i, event := range d.Events {
		if event.Name == "" {
			errs = append(errs, fmt.Errorf("event %d: %w", i, ErrEventNameRequired))
		}

		if event.Dst == "" {
			errs = append(errs, fmt.Errorf("event %d (%s): %w", i, event.Name, ErrEventDstRequired))
		}
	}

	return errors.Join(errs...)
}

// Build constructs a machine from the definition. The definition name becomes
// the machine name unless opts override it.
func (d *Definition) Build(callbacks Callbacks, opts ...Option) *Machine {
	opts = append([]Option{WithName(d.Name)}, opts...)

	return New(d.Initial, d.Events, callbacks, opts...)
}
