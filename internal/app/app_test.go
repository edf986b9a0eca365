package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/layerconfirm/layerconfirm/internal/config"
	"github.com/layerconfirm/layerconfirm/internal/logging"
	"github.com/layerconfirm/layerconfirm/internal/resolver"
	"github.com/layerconfirm/layerconfirm/internal/theme"
	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// scriptedSurface delivers every event to the sink in order, including
// events that arrive after the sink closed it.
type scriptedSurface struct {
	events []surface.Event
	runErr error
	log    *[]string
}

func (s *scriptedSurface) Run(sink surface.Sink) error {
	*s.log = append(*s.log, "run")
	for _, ev := range s.events {
		sink.HandleEvent(ev)
	}
	return s.runErr
}

func (s *scriptedSurface) Close() error {
	*s.log = append(*s.log, "close")
	return nil
}

func (s *scriptedSurface) DisplayServer() string { return "fake" }

type fakeLauncher struct {
	err error
	log *[]string
}

func (l *fakeLauncher) Exec(command string) error {
	*l.log = append(*l.log, "exec "+command)
	return l.err
}

type harness struct {
	calls   []string
	backend string
	opts    surface.Options
}

// install swaps the surface and launcher constructors for fakes
func install(t *testing.T, events []surface.Event, surfaceErr, runErr, execErr error) *harness {
	t.Helper()
	h := &harness{}

	origSurface, origLauncher := newSurface, newLauncher
	t.Cleanup(func() { newSurface, newLauncher = origSurface, origLauncher })

	newSurface = func(backend string, opts surface.Options, _ *zap.SugaredLogger) (surface.Surface, error) {
		h.backend = backend
		h.opts = opts
		if surfaceErr != nil {
			return nil, surfaceErr
		}
		return &scriptedSurface{events: events, runErr: runErr, log: &h.calls}, nil
	}
	newLauncher = func() resolver.Launcher {
		return &fakeLauncher{err: execErr, log: &h.calls}
	}
	return h
}

func testConfig(message, command string) *config.Config {
	cfg := config.Default()
	cfg.Overlay.Message = message
	cfg.Overlay.Command = command
	return cfg
}

func TestRunScenarios(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		command   string
		events    []surface.Event
		want      resolver.Outcome
		wantCalls []string
	}{
		{
			name:      "enter confirms",
			command:   "notify-send hi",
			events:    []surface.Event{surface.Key(surface.KeyReturn)},
			want:      resolver.OutcomeConfirmed,
			wantCalls: []string{"run", "close", "exec notify-send hi"},
		},
		{
			name:      "click dismisses",
			message:   "delete all files?",
			command:   "rm -rf /tmp/x",
			events:    []surface.Event{surface.Click(1)},
			want:      resolver.OutcomeDismissed,
			wantCalls: []string{"run", "close"},
		},
		{
			name:      "escape dismisses",
			command:   "systemctl poweroff",
			events:    []surface.Event{surface.Key(surface.KeyEscape)},
			want:      resolver.OutcomeDismissed,
			wantCalls: []string{"run", "close"},
		},
		{
			name:    "only the first event counts",
			command: "reboot",
			events: []surface.Event{
				surface.Click(3),
				surface.Key(surface.KeyReturn),
				surface.Key(surface.KeyKPEnter),
			},
			want:      resolver.OutcomeDismissed,
			wantCalls: []string{"run", "close"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := install(t, tt.events, nil, nil, nil)

			got, err := Run(testConfig(tt.message, tt.command), nil)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Run() = %v, want %v", got, tt.want)
			}
			if diff := cmp.Diff(tt.wantCalls, h.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunNoDisplay(t *testing.T) {
	h := install(t, nil, errors.Wrap(surface.ErrNoDisplay, "test"), nil, nil)

	got, err := Run(testConfig("", "notify-send hi"), nil)
	if !errors.Is(err, surface.ErrNoDisplay) {
		t.Errorf("Run() error = %v, want ErrNoDisplay", err)
	}
	if got != resolver.Pending {
		t.Errorf("Run() = %v, want pending", got)
	}
	if len(h.calls) != 0 {
		t.Errorf("surface or command touched without a display: %v", h.calls)
	}
}

func TestRunExecFailure(t *testing.T) {
	execErr := errors.New("exec format error")
	install(t, []surface.Event{surface.Key(surface.KeyISOEnter)}, nil, nil, execErr)

	got, err := Run(testConfig("", "true"), nil)
	if got != resolver.OutcomeConfirmed {
		t.Errorf("Run() = %v, want confirmed", got)
	}
	if errors.Cause(err) != execErr {
		t.Errorf("Run() error = %v, want cause %v", err, execErr)
	}
}

func TestRunLoopErrorBeforeDecision(t *testing.T) {
	install(t, nil, nil, errors.New("connection lost"), nil)

	got, err := Run(testConfig("", "true"), nil)
	if err == nil {
		t.Fatal("Run() error = nil, want loop error")
	}
	if got != resolver.Pending {
		t.Errorf("Run() = %v, want pending", got)
	}
}

func TestRunLoopErrorAfterDecisionIgnored(t *testing.T) {
	install(t, []surface.Event{surface.Click(1)}, nil, errors.New("connection closed"), nil)

	got, err := Run(testConfig("", "true"), nil)
	if err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if got != resolver.OutcomeDismissed {
		t.Errorf("Run() = %v, want dismissed", got)
	}
}

func TestRunClosedWithoutDecision(t *testing.T) {
	install(t, nil, nil, nil, nil)

	if _, err := Run(testConfig("", "true"), nil); err == nil {
		t.Error("Run() error = nil for an overlay that saw no input")
	}
}

func TestRunPassesOptions(t *testing.T) {
	css := filepath.Join(t.TempDir(), "style.css")
	if err := os.WriteFile(css, []byte("window { background-color: #000000; }\nlabel { color: #ffffff; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := install(t, []surface.Event{surface.Click(1)}, nil, nil, nil)

	cfg := testConfig("shut down?", "poweroff")
	cfg.Overlay.Stylesheet = css
	cfg.Display.Backend = config.BackendX11
	cfg.Display.Layer = config.LayerOverlay

	if _, err := Run(cfg, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if h.backend != config.BackendX11 {
		t.Errorf("backend = %q, want x11", h.backend)
	}
	want := surface.Options{
		Text:       "shut down?\npress enter to confirm",
		Stylesheet: "window { background-color: #000000; }\nlabel { color: #ffffff; }\n",
		Palette:    surface.Palette{Background: 0x000000, Foreground: 0xffffff},
		Layer:      surface.LayerOverlay,
	}
	if diff := cmp.Diff(want, h.opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMissingStylesheetFallsBack(t *testing.T) {
	h := install(t, []surface.Event{surface.Click(1)}, nil, nil, nil)

	cfg := testConfig("", "true")
	cfg.Overlay.Stylesheet = filepath.Join(t.TempDir(), "missing.css")

	if _, err := Run(cfg, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.opts.Stylesheet != theme.Default().CSS {
		t.Error("missing stylesheet did not fall back to the built-in theme")
	}
	if h.opts.Palette != theme.DefaultPalette {
		t.Errorf("palette = %+v, want %+v", h.opts.Palette, theme.DefaultPalette)
	}
}

func TestStylesheetWarningHasNoStack(t *testing.T) {
	install(t, []surface.Event{surface.Click(1)}, nil, nil, nil)

	cfg := testConfig("", "true")
	cfg.Overlay.Stylesheet = "/nonexistent/style.css"

	var buf bytes.Buffer
	if _, err := Run(cfg, logging.New(&buf, false, false)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "errorVerbose") {
		t.Errorf("stack trace in stylesheet warning:\n%s", out)
	}
	if !strings.Contains(out, "/nonexistent/style.css") {
		t.Errorf("warning does not name the stylesheet:\n%s", out)
	}
	if n := strings.Count(out, "\n"); n != 1 {
		t.Errorf("warning has %d lines, want 1:\n%s", n, out)
	}
}
