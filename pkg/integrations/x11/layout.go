package x11

import "strings"

// maxTextLen is the longest string a single ImageText8 request can carry
const maxTextLen = 255

type fontMetrics struct {
	CharWidth int
	Ascent    int
	Descent   int
}

type textLine struct {
	Text string
	X, Y int16
}

// latin1 converts s to the single-byte encoding core fonts expect.
// Runes outside Latin-1 become '?'.
func latin1(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == maxTextLen {
			break
		}
		if r > 0xff {
			r = '?'
		}
		b.WriteByte(byte(r))
	}
	return b.String()
}

// layoutLines centers text horizontally and vertically on a width x height
// area using a fixed-width font. Y is the baseline of each line.
func layoutLines(text string, m fontMetrics, width, height int) []textLine {
	lines := strings.Split(text, "\n")
	lineHeight := m.Ascent + m.Descent
	top := (height - len(lines)*lineHeight) / 2
	if top < 0 {
		top = 0
	}

	out := make([]textLine, 0, len(lines))
	for i, line := range lines {
		encoded := latin1(line)
		x := (width - len(encoded)*m.CharWidth) / 2
		if x < 0 {
			x = 0
		}
		out = append(out, textLine{
			Text: encoded,
			X:    int16(x),
			Y:    int16(top + i*lineHeight + m.Ascent),
		})
	}
	return out
}
