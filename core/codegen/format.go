package codegen

import (
	"bytes"
	"strings"

	"github.com/tristendillon/doppelganger/core/models"
)

const (
	topLevelGap = 2
	nestedGap   = 1
)

// Format lays out a Listing canonically: two blank lines around top-level
// declarations, one around nested declarations, none elsewhere, no trailing
// whitespace outside string literals and a single final newline. The result
// depends only on the Listing, so formatting is deterministic and
// re-formatting a re-parsed result is a no-op.
func Format(l *Listing) []byte {
	var buf bytes.Buffer
	lastDef := make(map[int]bool)
	for i, b := range l.Blocks {
		if i > 0 {
			buf.WriteString(strings.Repeat("\n", blankLines(b, lastDef[b.Depth])))
		}
		lastDef[b.Depth] = b.Def
		for _, line := range b.Lines {
			buf.WriteString(trimLine(line))
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

func blankLines(b Block, prevDef bool) int {
	if b.First {
		return 0
	}
	if !b.Def && !prevDef {
		return 0
	}
	if b.Depth == 0 {
		return topLevelGap
	}
	return nestedGap
}

func trimLine(line models.Line) string {
	if line.OpenString {
		return line.Text
	}
	return strings.TrimRight(line.Text, " \t\f\v")
}

// Render serializes and formats mod in one step.
func Render(mod *models.Module) ([]byte, error) {
	l, err := Generate(mod)
	if err != nil {
		return nil, err
	}
	return Format(l), nil
}
