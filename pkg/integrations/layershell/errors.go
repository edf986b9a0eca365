// Package layershell presents the overlay as a wlr-layer-shell surface
// through GTK4 and gtk4-layer-shell.
//
// Building with -tags nolayershell (or without cgo) drops the GTK
// dependency; NewSurface then always fails with ErrLayerShellUnsupported
// so auto detection falls back to X11.
package layershell

import (
	"github.com/pkg/errors"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// ErrLayerShellUnsupported is returned when the compositor has no
// zwlr_layer_shell_v1 global. It wraps surface.ErrNoDisplay.
var ErrLayerShellUnsupported = errors.Wrap(surface.ErrNoDisplay, "compositor does not support wlr-layer-shell")
