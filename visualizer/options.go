package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowEvents labels transitions with their event names
	ShowEvents bool

	// HighlightCurrent marks the machine's current state
	HighlightCurrent bool

	// Direction controls diagram flow: "TB" (or "TD"), "BT", "LR" or "RL"
	Direction string

	// HighlightPath highlights a specific state path through the diagram
	HighlightPath []string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowEvents:       true,
		HighlightCurrent: true,
		Direction:        "TD",
	}
}

// WithShowEvents enables/disables event labels.
func (o Options) WithShowEvents(show bool) Options {
	o.ShowEvents = show

	return o
}

// WithHighlightCurrent enables/disables marking the current state.
func (o Options) WithHighlightCurrent(highlight bool) Options {
	o.HighlightCurrent = highlight

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}
