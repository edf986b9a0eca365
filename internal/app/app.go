// Package app runs one confirmation cycle: theme, overlay, resolver.
package app

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/layerconfirm/layerconfirm/internal/config"
	"github.com/layerconfirm/layerconfirm/internal/launcher"
	"github.com/layerconfirm/layerconfirm/internal/logging"
	"github.com/layerconfirm/layerconfirm/internal/resolver"
	"github.com/layerconfirm/layerconfirm/internal/theme"
	"github.com/layerconfirm/layerconfirm/pkg/overlay"
	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// replaced in tests
var (
	newSurface  = overlay.New
	newLauncher = func() resolver.Launcher { return launcher.NewShell() }
)

// Options builds the surface options for cfg from the resolved theme
func Options(cfg *config.Config, th *theme.Theme) surface.Options {
	return surface.Options{
		Text:       cfg.DisplayText(),
		Stylesheet: th.CSS,
		Palette:    th.Palette(),
		Layer:      surface.Layer(cfg.Display.Layer),
	}
}

// Run shows the overlay and blocks until it is resolved. A confirmed run
// only returns if the command could not be started.
func Run(cfg *config.Config, log *zap.SugaredLogger) (resolver.Outcome, error) {
	log = logging.OrNop(log)

	th, err := theme.Load(cfg.Overlay.Stylesheet)
	if err != nil {
		log.Warnw("using built-in stylesheet", "error", err)
	}
	log.Debugw("stylesheet", "source", th.Source)

	s, err := newSurface(cfg.Display.Backend, Options(cfg, th), log)
	if err != nil {
		return resolver.Pending, errors.Wrap(err, "failed to create overlay")
	}
	log.Infow("overlay backend ready", "display_server", s.DisplayServer())

	r := resolver.New(s, newLauncher(), cfg.Overlay.Command, log)
	if err := s.Run(r); err != nil {
		// a resolved overlay has already done its job
		if !r.State().Terminal() {
			return r.Outcome(), errors.Wrap(err, "overlay failed")
		}
		log.Debugw("overlay loop ended with error after resolution", "error", err)
	}

	if r.Outcome() == resolver.Pending {
		return resolver.Pending, errors.New("overlay closed without a decision")
	}
	return r.Outcome(), r.Err()
}
