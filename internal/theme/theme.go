// Package theme resolves the stylesheet applied to the overlay.
package theme

import (
	_ "embed"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

//go:embed default.css
var defaultCSS string

// SourceBuiltin is the Source of the embedded theme
const SourceBuiltin = "builtin"

// ErrStylesheet is wrapped when a configured stylesheet cannot be used
var ErrStylesheet = errors.New("stylesheet could not be loaded")

// DefaultPalette matches default.css
var DefaultPalette = surface.Palette{
	Background: 0x11111b,
	Foreground: 0xcdd6f4,
}

// Theme is a loaded stylesheet
type Theme struct {
	CSS    string
	Source string
}

// Default returns the built-in theme
func Default() *Theme {
	return &Theme{CSS: defaultCSS, Source: SourceBuiltin}
}

// Load reads the stylesheet at path. An empty path selects the built-in
// theme. When path cannot be read the built-in theme is returned together
// with an error wrapping ErrStylesheet, so the overlay can still be shown.
func Load(path string) (*Theme, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), errors.Wrapf(ErrStylesheet, "%s: %v", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return Default(), errors.Wrapf(ErrStylesheet, "%s: file is empty", path)
	}

	return &Theme{CSS: string(data), Source: path}, nil
}

// IsBuiltin reports whether t is the embedded theme
func (t *Theme) IsBuiltin() bool {
	return t.Source == SourceBuiltin
}

var (
	commentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	colorRe   = regexp.MustCompile(`(?i)(^|[\s;{])(background-color|color)\s*:\s*#([0-9a-f]{6}|[0-9a-f]{3})\b`)
)

// Palette extracts the first background-color and color declarations in
// hex form. Missing or unsupported values keep the default colours.
func (t *Theme) Palette() surface.Palette {
	p := DefaultPalette
	css := commentRe.ReplaceAllString(t.CSS, "")

	var seenBg, seenFg bool
	for _, m := range colorRe.FindAllStringSubmatch(css, -1) {
		value, ok := parseHex(m[3])
		if !ok {
			continue
		}
		switch strings.ToLower(m[2]) {
		case "background-color":
			if !seenBg {
				p.Background, seenBg = value, true
			}
		case "color":
			if !seenFg {
				p.Foreground, seenFg = value, true
			}
		}
	}
	return p
}

// parseHex converts "rgb" or "rrggbb" to 0xRRGGBB
func parseHex(s string) (uint32, bool) {
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
