package x11

import (
	"encoding/binary"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// ErrGrabFailed is returned when keyboard input cannot be made exclusive
var ErrGrabFailed = errors.New("could not grab the keyboard")

const (
	wmClass       = "layerconfirm"
	grabAttempts  = 20
	grabRetryWait = 50 * time.Millisecond
)

// fontNames are tried in order, "fixed" is always present on X servers
var fontNames = []string{
	"-misc-fixed-bold-r-normal--18-*-*-*-*-*-iso8859-1",
	"fixed",
}

// Surface implements surface.Surface with an override-redirect window that
// covers the default screen and holds the keyboard and pointer grabs.
type Surface struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	opts   surface.Options
	log    *zap.SugaredLogger

	win     xproto.Window
	gc      xproto.Gcontext
	font    xproto.Font
	metrics fontMetrics
	keys    *keymap
	lines   []textLine

	closed bool
}

// NewSurface connects to the X server named by $DISPLAY
func NewSurface(opts surface.Options, log *zap.SugaredLogger) (*Surface, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, errors.Wrapf(surface.ErrNoDisplay, "x11: %v", err)
	}

	return &Surface{
		conn:   conn,
		screen: xproto.Setup(conn).DefaultScreen(conn),
		opts:   opts,
		log:    log,
	}, nil
}

// DisplayServer returns "x11"
func (s *Surface) DisplayServer() string {
	return "x11"
}

// Run creates and maps the overlay, then dispatches key and button presses
// to sink until Close is called.
func (s *Surface) Run(sink surface.Sink) error {
	if err := s.create(); err != nil {
		s.conn.Close()
		return err
	}
	if err := s.show(); err != nil {
		s.conn.Close()
		return err
	}

	for {
		ev, xerr := s.conn.WaitForEvent()
		if s.closed {
			return nil
		}
		if ev == nil && xerr == nil {
			return errors.New("x11 connection closed")
		}
		if xerr != nil {
			s.log.Debugw("x11 error", "error", xerr)
			continue
		}

		switch e := ev.(type) {
		case xproto.ExposeEvent:
			if e.Count == 0 {
				s.draw()
			}
		case xproto.KeyPressEvent:
			sink.HandleEvent(surface.Key(s.keys.lookup(e.Detail, e.State)))
		case xproto.ButtonPressEvent:
			sink.HandleEvent(surface.Click(uint32(e.Detail)))
		}

		if s.closed {
			return nil
		}
	}
}

// Close releases the grabs and destroys the window. The destroy request is
// checked so the overlay is gone from the screen when Close returns.
func (s *Surface) Close() error {
	s.closed = true

	xproto.UngrabPointer(s.conn, xproto.TimeCurrentTime)
	xproto.UngrabKeyboard(s.conn, xproto.TimeCurrentTime)
	xproto.FreeGC(s.conn, s.gc)
	xproto.CloseFont(s.conn, s.font)
	xproto.UnmapWindow(s.conn, s.win)
	err := xproto.DestroyWindowChecked(s.conn, s.win).Check()
	s.conn.Close()

	if err != nil {
		return errors.Wrap(err, "failed to destroy overlay window")
	}
	return nil
}

// create builds the window, font, graphics context and keymap. Nothing is
// visible yet.
func (s *Surface) create() error {
	keys, err := loadKeymap(s.conn)
	if err != nil {
		return errors.Wrap(err, "failed to read keyboard mapping")
	}
	s.keys = keys

	s.win, err = xproto.NewWindowId(s.conn)
	if err != nil {
		return errors.Wrap(err, "failed to allocate window id")
	}

	bg := s.pixel(s.opts.Palette.Background)
	fg := s.pixel(s.opts.Palette.Foreground)

	err = xproto.CreateWindowChecked(s.conn, s.screen.RootDepth, s.win, s.screen.Root,
		0, 0, s.screen.WidthInPixels, s.screen.HeightInPixels, 0,
		xproto.WindowClassInputOutput, s.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{
			bg,
			1,
			xproto.EventMaskExposure | xproto.EventMaskKeyPress | xproto.EventMaskButtonPress,
		}).Check()
	if err != nil {
		return errors.Wrap(err, "failed to create overlay window")
	}

	if err := s.setProperties(); err != nil {
		return err
	}

	if err := s.openFont(); err != nil {
		return err
	}

	s.gc, err = xproto.NewGcontextId(s.conn)
	if err != nil {
		return errors.Wrap(err, "failed to allocate graphics context id")
	}
	err = xproto.CreateGCChecked(s.conn, s.gc, xproto.Drawable(s.win),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont,
		[]uint32{fg, bg, uint32(s.font)}).Check()
	if err != nil {
		return errors.Wrap(err, "failed to create graphics context")
	}

	s.lines = layoutLines(s.opts.Text, s.metrics, int(s.screen.WidthInPixels), int(s.screen.HeightInPixels))
	return nil
}

// show maps and raises the window, then takes the grabs. Grabs need a
// viewable window so they come last.
func (s *Surface) show() error {
	xproto.MapWindow(s.conn, s.win)
	xproto.ConfigureWindow(s.conn, s.win, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})

	if err := s.grabKeyboard(); err != nil {
		return err
	}
	if err := s.grabPointer(); err != nil {
		s.log.Warnw("pointer grab failed, clicks outside the overlay are not captured", "error", err)
	}
	return nil
}

// grabKeyboard retries while another client (often the launcher that
// started us) still holds the keyboard.
func (s *Surface) grabKeyboard() error {
	var status byte
	for i := 0; i < grabAttempts; i++ {
		reply, err := xproto.GrabKeyboard(s.conn, true, s.win, xproto.TimeCurrentTime,
			xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
		if err != nil {
			return errors.Wrap(ErrGrabFailed, err.Error())
		}
		if reply.Status == xproto.GrabStatusSuccess {
			return nil
		}
		status = reply.Status
		time.Sleep(grabRetryWait)
	}
	return errors.Wrapf(ErrGrabFailed, "grab status %d after %d attempts", status, grabAttempts)
}

func (s *Surface) grabPointer() error {
	var status byte
	for i := 0; i < grabAttempts; i++ {
		reply, err := xproto.GrabPointer(s.conn, true, s.win, xproto.EventMaskButtonPress,
			xproto.GrabModeAsync, xproto.GrabModeAsync, s.win, xproto.CursorNone,
			xproto.TimeCurrentTime).Reply()
		if err != nil {
			return err
		}
		if reply.Status == xproto.GrabStatusSuccess {
			return nil
		}
		status = reply.Status
		time.Sleep(grabRetryWait)
	}
	return errors.Errorf("grab status %d after %d attempts", status, grabAttempts)
}

func (s *Surface) draw() {
	xproto.ClearArea(s.conn, false, s.win, 0, 0, 0, 0)
	for _, line := range s.lines {
		if line.Text == "" {
			continue
		}
		xproto.ImageText8(s.conn, byte(len(line.Text)), xproto.Drawable(s.win), s.gc, line.X, line.Y, line.Text)
	}
}

func (s *Surface) openFont() error {
	var err error
	s.font, err = xproto.NewFontId(s.conn)
	if err != nil {
		return errors.Wrap(err, "failed to allocate font id")
	}

	var lastErr error
	for _, name := range fontNames {
		if lastErr = xproto.OpenFontChecked(s.conn, s.font, uint16(len(name)), name).Check(); lastErr == nil {
			s.log.Debugw("opened core font", "font", name)
			break
		}
	}
	if lastErr != nil {
		return errors.Wrap(lastErr, "failed to open a core font")
	}

	reply, err := xproto.QueryFont(s.conn, xproto.Fontable(s.font)).Reply()
	if err != nil {
		return errors.Wrap(err, "failed to query font metrics")
	}
	s.metrics = fontMetrics{
		CharWidth: int(reply.MaxBounds.CharacterWidth),
		Ascent:    int(reply.FontAscent),
		Descent:   int(reply.FontDescent),
	}
	return nil
}

// setProperties names the window and asks EWMH compositors to keep it
// fullscreen and above everything else. Override-redirect already keeps the
// window manager from moving or resizing it.
func (s *Surface) setProperties() error {
	class := wmClass + "\x00" + wmClass + "\x00"
	xproto.ChangeProperty(s.conn, xproto.PropModeReplace, s.win, xproto.AtomWmClass,
		xproto.AtomString, 8, uint32(len(class)), []byte(class))
	xproto.ChangeProperty(s.conn, xproto.PropModeReplace, s.win, xproto.AtomWmName,
		xproto.AtomString, 8, uint32(len(wmClass)), []byte(wmClass))

	atoms, err := s.internAtoms("_NET_WM_STATE", "_NET_WM_STATE_FULLSCREEN", "_NET_WM_STATE_ABOVE",
		"_NET_WM_WINDOW_TYPE", "_NET_WM_WINDOW_TYPE_NOTIFICATION")
	if err != nil {
		return err
	}

	xproto.ChangeProperty(s.conn, xproto.PropModeReplace, s.win, atoms["_NET_WM_STATE"],
		xproto.AtomAtom, 32, 2, atomBytes(atoms["_NET_WM_STATE_FULLSCREEN"], atoms["_NET_WM_STATE_ABOVE"]))
	xproto.ChangeProperty(s.conn, xproto.PropModeReplace, s.win, atoms["_NET_WM_WINDOW_TYPE"],
		xproto.AtomAtom, 32, 1, atomBytes(atoms["_NET_WM_WINDOW_TYPE_NOTIFICATION"]))
	return nil
}

func (s *Surface) internAtoms(names ...string) (map[string]xproto.Atom, error) {
	atoms := make(map[string]xproto.Atom, len(names))
	for _, name := range names {
		reply, err := xproto.InternAtom(s.conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to intern atom %s", name)
		}
		atoms[name] = reply.Atom
	}
	return atoms, nil
}

// pixel allocates rgb (0xRRGGBB) in the default colormap. The raw value is
// used as-is if allocation fails, which is right for TrueColor visuals.
func (s *Surface) pixel(rgb uint32) uint32 {
	r, g, b := splitRGB(rgb)
	reply, err := xproto.AllocColor(s.conn, s.screen.DefaultColormap, r, g, b).Reply()
	if err != nil {
		s.log.Debugw("color allocation failed", "rgb", rgb, "error", err)
		return rgb
	}
	return reply.Pixel
}

// splitRGB expands 8-bit channels to the 16-bit range X uses
func splitRGB(rgb uint32) (r, g, b uint16) {
	return uint16(rgb>>16&0xff) * 0x101, uint16(rgb>>8&0xff) * 0x101, uint16(rgb&0xff) * 0x101
}

func atomBytes(atoms ...xproto.Atom) []byte {
	buf := make([]byte, 4*len(atoms))
	for i, a := range atoms {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(a))
	}
	return buf
}
