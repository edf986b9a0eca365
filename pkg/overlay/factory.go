// Package overlay picks the overlay backend for the running session.
package overlay

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/layerconfirm/layerconfirm/pkg/integrations/layershell"
	"github.com/layerconfirm/layerconfirm/pkg/integrations/x11"
	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// Backend names
const (
	BackendAuto       = "auto"
	BackendLayerShell = "layershell"
	BackendX11        = "x11"
)

type constructor func(opts surface.Options, log *zap.SugaredLogger) (surface.Surface, error)

var (
	newLayerShell constructor = func(opts surface.Options, log *zap.SugaredLogger) (surface.Surface, error) {
		s, err := layershell.NewSurface(opts, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	newX11 constructor = func(opts surface.Options, log *zap.SugaredLogger) (surface.Surface, error) {
		s, err := x11.NewSurface(opts, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
)

// New connects the requested backend. With BackendAuto the session type
// decides, and a Wayland compositor without layer-shell falls back to X11
// when XWayland is reachable.
func New(backend string, opts surface.Options, log *zap.SugaredLogger) (surface.Surface, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	switch backend {
	case BackendLayerShell:
		return newLayerShell(opts, log)
	case BackendX11:
		return newX11(opts, log)
	case BackendAuto, "":
		return autoDetect(opts, log)
	}
	return nil, errors.Errorf("unknown backend %q", backend)
}

func autoDetect(opts surface.Options, log *zap.SugaredLogger) (surface.Surface, error) {
	server := DetectDisplayServer()
	log.Debugw("detected display server", "server", server)

	switch server {
	case Wayland:
		compositor := DetectCompositor()
		xwayland := os.Getenv("DISPLAY") != ""
		log.Infow("wayland session", "compositor", compositor, "xwayland", xwayland)

		if lacksLayerShell(compositor) && xwayland {
			log.Infow("compositor has no layer shell, using XWayland", "compositor", compositor)
			return newX11(opts, log)
		}

		s, err := newLayerShell(opts, log)
		if errors.Is(err, layershell.ErrLayerShellUnsupported) && xwayland {
			log.Warnw("layer shell unsupported, falling back to XWayland", "compositor", compositor)
			return newX11(opts, log)
		}
		return s, err

	case X11:
		return newX11(opts, log)
	}

	return nil, errors.Wrap(surface.ErrNoDisplay, "neither WAYLAND_DISPLAY nor DISPLAY is set")
}

// DisplayServer is the kind of session the overlay runs in
type DisplayServer string

const (
	Wayland DisplayServer = "wayland"
	X11     DisplayServer = "x11"
	Unknown DisplayServer = "unknown"
)

// DetectDisplayServer reads the session from the environment. Wayland wins
// when both sockets are advertised, since DISPLAY then points at XWayland.
func DetectDisplayServer() DisplayServer {
	switch os.Getenv("XDG_SESSION_TYPE") {
	case "wayland":
		return Wayland
	case "x11":
		if os.Getenv("WAYLAND_DISPLAY") == "" {
			return X11
		}
	}

	switch {
	case os.Getenv("WAYLAND_DISPLAY") != "":
		return Wayland
	case os.Getenv("DISPLAY") != "":
		return X11
	}
	return Unknown
}
