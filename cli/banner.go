// Package cli holds terminal helpers shared by the demo commands.
package cli

import (
	"strings"
	"unicode"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	ellipsis       = "…"

	bannerPadding = 2
)

// DefaultWidth is the banner width used when none is given.
const DefaultWidth = 60

// Banner draws s inside a box of the given width, one box row per line of s.
// Lines that don't fit are truncated with an ellipsis.
func Banner(s string, width int) string {
	if width <= bannerPadding {
		return ""
	}

	inner := width - bannerPadding
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")

	var b strings.Builder

	b.WriteString(boxTopLeft + strings.Repeat(boxTop, inner) + boxTopRight + "\n")

	for _, line := range lines {
		b.WriteString(boxSide + center(line, inner) + boxSide + "\n")
	}

	b.WriteString(boxBottomLeft + strings.Repeat(boxBottom, inner) + boxBottomRight)

	return b.String()
}

func graphicLen(s string) int {
	n := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			n++
		}
	}

	return n
}

func truncate(s string, n int) string {
	var (
		b     strings.Builder
		count int
	)

	for _, r := range s {
		if count >= n {
			break
		}

		if unicode.IsGraphic(r) {
			count++
		}

		b.WriteRune(r)
	}

	return b.String()
}

func center(text string, width int) string {
	length := graphicLen(text)
	if length > width {
		text = truncate(text, width-1) + ellipsis
		length = width
	}

	left := (width - length) / 2 //nolint:mnd

	return strings.Repeat(" ", left) + text + strings.Repeat(" ", width-length-left)
}
