//go:build cgo && !nolayershell

package layershell

import (
	"os"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

const appID = "io.github.layerconfirm"

// Surface implements surface.Surface with a GTK4 window turned into a
// layer-shell surface.
type Surface struct {
	opts surface.Options
	log  *zap.SugaredLogger

	app *gtk.Application
	win *gtk.ApplicationWindow
}

// NewSurface initializes GTK against the default display and checks for
// layer-shell support. Nothing is shown until Run.
func NewSurface(opts surface.Options, log *zap.SugaredLogger) (*Surface, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if !gtk.InitCheck() {
		return nil, errors.Wrap(surface.ErrNoDisplay, "gtk: cannot open display")
	}
	if !supported() {
		return nil, ErrLayerShellUnsupported
	}

	return &Surface{opts: opts, log: log}, nil
}

// DisplayServer returns "wayland"
func (s *Surface) DisplayServer() string {
	return "wayland"
}

// Run starts the GTK application and blocks until its last window is gone.
func (s *Surface) Run(sink surface.Sink) error {
	s.app = gtk.NewApplication(appID, gio.ApplicationNonUnique)
	s.app.ConnectStartup(s.loadStylesheet)
	s.app.ConnectActivate(func() { s.activate(sink) })

	// only argv[0], GApplication must not see our flags
	if code := s.app.Run([]string{os.Args[0]}); code != 0 {
		return errors.Errorf("gtk application exited with status %d", code)
	}
	return nil
}

// Close closes the window and flushes the display so the compositor drops
// the surface before anything else happens in this process.
func (s *Surface) Close() error {
	if s.win == nil {
		return errors.New("overlay window was never created")
	}
	s.win.Close()
	if display := gdk.DisplayGetDefault(); display != nil {
		display.Flush()
	}
	return nil
}

func (s *Surface) loadStylesheet() {
	if s.opts.Stylesheet == "" {
		return
	}

	provider := gtk.NewCSSProvider()
	provider.ConnectParsingError(func(section *gtk.CSSSection, err error) {
		s.log.Warnw("stylesheet parse error", "location", section.String(), "error", err)
	})
	provider.LoadFromData(s.opts.Stylesheet)

	display := gdk.DisplayGetDefault()
	if display == nil {
		s.log.Warn("no default display, stylesheet not applied")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// activate builds the overlay. Every layer-shell property is set before the
// window is made visible.
func (s *Surface) activate(sink surface.Sink) {
	s.win = gtk.NewApplicationWindow(s.app)
	s.win.SetTitle("layerconfirm")

	initLayerShell(&s.win.Window, s.opts.Layer)
	s.win.Fullscreen()

	keys := gtk.NewEventControllerKey()
	keys.ConnectKeyPressed(func(keyval, _ uint, _ gdk.ModifierType) bool {
		sink.HandleEvent(surface.Key(surface.Keysym(keyval)))
		return true
	})
	s.win.AddController(keys)

	click := gtk.NewGestureClick()
	click.SetButton(0) // any button
	click.ConnectPressed(func(_ int, _, _ float64) {
		sink.HandleEvent(surface.Click(uint32(click.CurrentButton())))
	})
	s.win.AddController(click)

	label := gtk.NewLabel(s.opts.Text)
	label.SetJustify(gtk.JustifyCenter)
	label.SetHAlign(gtk.AlignCenter)
	label.SetVAlign(gtk.AlignCenter)
	label.AddCSSClass("layerconfirm-message")
	s.win.SetChild(label)

	s.log.Debugw("presenting layer surface", "layer", s.opts.Layer)
	s.win.SetVisible(true)
}
