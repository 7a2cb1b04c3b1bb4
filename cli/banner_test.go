package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner(t *testing.T) {
	t.Parallel()

	out := Banner("door\nclosed", 10)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "╒════════╕", lines[0])
	assert.Equal(t, "│  door  │", lines[1])
	assert.Equal(t, "│ closed │", lines[2])
	assert.Equal(t, "└────────┘", lines[3])
}

func TestBannerTruncates(t *testing.T) {
	t.Parallel()

	lines := strings.Split(Banner("a very long state name", 8), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "│a ver…│", lines[1])
}

func TestBannerTooNarrow(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Banner("x", 2))
	assert.Empty(t, Banner("x", 0))
}

func TestSelectWithoutChoices(t *testing.T) {
	t.Parallel()

	_, err := NewTerminal().Select("event", nil)
	require.ErrorIs(t, err, ErrNoChoices)
}

func TestStyles(t *testing.T) {
	t.Parallel()

	assert.Contains(t, State("open"), "open")
	assert.Contains(t, Event("toggle"), "toggle")
	assert.Contains(t, Pending("waiting"), "waiting")
	assert.Contains(t, Failure(assert.AnError), assert.AnError.Error())
	assert.Empty(t, Failure(nil))
}
