package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// recorder is both Closer and Launcher and keeps the order of calls
type recorder struct {
	calls    []string
	commands []string
	closeErr error
	execErr  error
}

func (r *recorder) Close() error {
	r.calls = append(r.calls, "close")
	return r.closeErr
}

func (r *recorder) Exec(command string) error {
	r.calls = append(r.calls, "exec")
	r.commands = append(r.commands, command)
	return r.execErr
}

func TestAcceptKeysConfirm(t *testing.T) {
	for _, key := range []surface.Keysym{surface.KeyReturn, surface.KeyKPEnter, surface.KeyISOEnter} {
		t.Run(key.String(), func(t *testing.T) {
			rec := &recorder{}
			r := New(rec, rec, "true", nil)

			outcome, err := r.Resolve(surface.Key(key))
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if outcome != OutcomeConfirmed {
				t.Errorf("outcome = %v, want confirmed", outcome)
			}
			if r.State() != Confirmed {
				t.Errorf("state = %v, want confirmed", r.State())
			}
			if diff := cmp.Diff([]string{"close", "exec"}, rec.calls); diff != "" {
				t.Errorf("call order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOtherKeysDismiss(t *testing.T) {
	keys := []surface.Keysym{
		surface.KeyEscape,
		0x0020, // space
		0x0079, // y
		0x006e, // n
		0xff09, // Tab
		0xffe1, // Shift_L
		0xff0a, // Linefeed, close to Return but not an accept key
		0,
	}

	for _, key := range keys {
		t.Run(key.String(), func(t *testing.T) {
			rec := &recorder{}
			r := New(rec, rec, "rm -rf /tmp/x", nil)

			outcome, err := r.Resolve(surface.Key(key))
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if outcome != OutcomeDismissed {
				t.Errorf("outcome = %v, want dismissed", outcome)
			}
			if diff := cmp.Diff([]string{"close"}, rec.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
			if len(rec.commands) != 0 {
				t.Errorf("command executed: %v", rec.commands)
			}
		})
	}
}

func TestClickDismisses(t *testing.T) {
	for _, button := range []uint32{0, 1, 2, 3, 8} {
		rec := &recorder{}
		r := New(rec, rec, "rm -rf /tmp/x", nil)

		outcome, err := r.Resolve(surface.Click(button))
		if err != nil {
			t.Fatalf("button %d: Resolve() error: %v", button, err)
		}
		if outcome != OutcomeDismissed {
			t.Errorf("button %d: outcome = %v, want dismissed", button, outcome)
		}
		if diff := cmp.Diff([]string{"close"}, rec.calls); diff != "" {
			t.Errorf("button %d: calls mismatch (-want +got):\n%s", button, diff)
		}
	}
}

func TestNoDoubleEffect(t *testing.T) {
	tests := []struct {
		name      string
		first     surface.Event
		want      Outcome
		wantCalls []string
	}{
		{"confirm then more", surface.Key(surface.KeyReturn), OutcomeConfirmed, []string{"close", "exec"}},
		{"dismiss by key then more", surface.Key(surface.KeyEscape), OutcomeDismissed, []string{"close"}},
		{"dismiss by click then more", surface.Click(1), OutcomeDismissed, []string{"close"}},
	}

	redelivered := []surface.Event{
		surface.Key(surface.KeyReturn),
		surface.Key(surface.KeyKPEnter),
		surface.Click(1),
		surface.Key(surface.KeyEscape),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := New(rec, rec, "notify-send hi", nil)

			if _, err := r.Resolve(tt.first); err != nil {
				t.Fatalf("first Resolve() error: %v", err)
			}

			for _, ev := range redelivered {
				outcome, err := r.Resolve(ev)
				if !errors.Is(err, ErrResolved) {
					t.Errorf("Resolve(%v) error = %v, want ErrResolved", ev.Kind, err)
				}
				if outcome != tt.want {
					t.Errorf("Resolve(%v) outcome = %v, want %v", ev.Kind, outcome, tt.want)
				}
				r.HandleEvent(ev)
			}

			if diff := cmp.Diff(tt.wantCalls, rec.calls); diff != "" {
				t.Errorf("calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScenarioEnterRunsCommand(t *testing.T) {
	rec := &recorder{}
	r := New(rec, rec, "notify-send hi", nil)

	r.HandleEvent(surface.Key(surface.KeyReturn))

	if diff := cmp.Diff([]string{"notify-send hi"}, rec.commands); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if r.Outcome() != OutcomeConfirmed {
		t.Errorf("Outcome() = %v, want confirmed", r.Outcome())
	}
}

func TestScenarioEscapeLikeClick(t *testing.T) {
	byKey := &recorder{}
	byClick := &recorder{}

	New(byKey, byKey, "...", nil).HandleEvent(surface.Key(surface.KeyEscape))
	New(byClick, byClick, "...", nil).HandleEvent(surface.Click(1))

	if diff := cmp.Diff(byClick.calls, byKey.calls); diff != "" {
		t.Errorf("escape and click differ (-click +escape):\n%s", diff)
	}
}

func TestExecFailureIsReported(t *testing.T) {
	rec := &recorder{execErr: errors.New("no such file or directory")}
	r := New(rec, rec, "true", nil)

	outcome, err := r.Resolve(surface.Key(surface.KeyReturn))
	if err == nil {
		t.Fatal("Resolve() error = nil, want launch error")
	}
	if errors.Cause(err) != rec.execErr {
		t.Errorf("Cause(err) = %v, want %v", errors.Cause(err), rec.execErr)
	}
	if outcome != OutcomeConfirmed {
		t.Errorf("outcome = %v, want confirmed", outcome)
	}
	if r.Err() == nil {
		t.Error("Err() = nil after failed exec")
	}

	// still terminal: a second Enter must not try again
	if _, err := r.Resolve(surface.Key(surface.KeyReturn)); !errors.Is(err, ErrResolved) {
		t.Errorf("second Resolve() error = %v, want ErrResolved", err)
	}
	if len(rec.commands) != 1 {
		t.Errorf("exec called %d times, want 1", len(rec.commands))
	}
}

func TestCloseFailureStillLaunches(t *testing.T) {
	rec := &recorder{closeErr: errors.New("connection lost")}
	r := New(rec, rec, "true", nil)

	if _, err := r.Resolve(surface.Key(surface.KeyReturn)); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if diff := cmp.Diff([]string{"close", "exec"}, rec.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestInitialState(t *testing.T) {
	r := New(&recorder{}, &recorder{}, "true", nil)
	if r.State() != Waiting {
		t.Errorf("State() = %v, want waiting", r.State())
	}
	if r.Outcome() != Pending {
		t.Errorf("Outcome() = %v, want pending", r.Outcome())
	}
	if r.State().Terminal() {
		t.Error("Waiting reported as terminal")
	}
}

func TestStateStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Waiting.String(), "waiting"},
		{Confirmed.String(), "confirmed"},
		{Dismissed.String(), "dismissed"},
		{State(42).String(), "unknown"},
		{Pending.String(), "pending"},
		{OutcomeConfirmed.String(), "confirmed"},
		{OutcomeDismissed.String(), "dismissed"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestResolverIsSink(t *testing.T) {
	var _ surface.Sink = (*Resolver)(nil)
}

func TestHandleEventLeavesLaunchErrorToCaller(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := &recorder{execErr: errors.New("no such file or directory")}
	r := New(rec, rec, "true", zap.New(core).Sugar())

	r.HandleEvent(surface.Key(surface.KeyReturn))

	if r.Err() == nil {
		t.Fatal("Err() = nil after failed exec")
	}
	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 0 {
		t.Errorf("launch failure logged at error %d times, want 0", n)
	}
}
