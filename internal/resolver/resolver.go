// Package resolver turns the first input event on the overlay into exactly
// one confirmation outcome and drives its effect.
package resolver

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// ErrResolved is returned when an event arrives after the outcome is final
var ErrResolved = errors.New("confirmation already resolved")

// State of the confirmation state machine
type State int

const (
	Waiting State = iota
	Confirmed
	Dismissed
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Confirmed:
		return "confirmed"
	case Dismissed:
		return "dismissed"
	}
	return "unknown"
}

// Terminal reports whether s can no longer change
func (s State) Terminal() bool {
	return s == Confirmed || s == Dismissed
}

// Outcome is the terminal result of one confirmation cycle
type Outcome int

const (
	Pending Outcome = iota
	OutcomeConfirmed
	OutcomeDismissed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeDismissed:
		return "dismissed"
	}
	return "pending"
}

// Closer is the part of a surface the resolver needs
type Closer interface {
	Close() error
}

// Launcher runs the confirmed command. On success Exec does not return.
type Launcher interface {
	Exec(command string) error
}

// Resolver is the Waiting -> Confirmed | Dismissed state machine attached to
// an overlay surface. It is driven from the surface's UI thread only.
type Resolver struct {
	surface  Closer
	launcher Launcher
	command  string
	log      *zap.SugaredLogger

	state State
	err   error
}

// New creates a resolver in the Waiting state
func New(s Closer, l Launcher, command string, log *zap.SugaredLogger) *Resolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{
		surface:  s,
		launcher: l,
		command:  command,
		log:      log,
		state:    Waiting,
	}
}

// Classify maps an event to the state it moves a Waiting resolver into
func Classify(ev surface.Event) State {
	if ev.Kind == surface.KeyPress && ev.Keysym.IsAccept() {
		return Confirmed
	}
	return Dismissed
}

// HandleEvent implements surface.Sink
func (r *Resolver) HandleEvent(ev surface.Event) {
	// a launch failure is reported by whoever reads Err
	if _, err := r.Resolve(ev); err != nil && !errors.Is(err, ErrResolved) {
		r.log.Debugw("confirmation failed", "error", err)
	}
}

// Resolve applies ev to the state machine. Only the first call has an effect.
// The surface is closed before the command is started.
func (r *Resolver) Resolve(ev surface.Event) (Outcome, error) {
	if r.state.Terminal() {
		r.log.Debugw("ignoring event after resolution", "event", ev.Kind, "state", r.state)
		return r.Outcome(), ErrResolved
	}

	r.state = Classify(ev)
	r.log.Infow("overlay resolved", "event", ev.Kind, "key", ev.Keysym, "button", ev.Button, "state", r.state)

	if err := r.surface.Close(); err != nil {
		r.log.Warnw("failed to close overlay", "error", err)
	}

	if r.state == Confirmed {
		if err := r.launcher.Exec(r.command); err != nil {
			r.err = errors.Wrap(err, "failed to launch confirmed command")
		}
	}

	return r.Outcome(), r.err
}

// State returns the current state
func (r *Resolver) State() State {
	return r.state
}

// Outcome returns the outcome reached so far, Pending while Waiting
func (r *Resolver) Outcome() Outcome {
	switch r.state {
	case Confirmed:
		return OutcomeConfirmed
	case Dismissed:
		return OutcomeDismissed
	}
	return Pending
}

// Err returns the launch error of a Confirmed resolver that failed to exec
func (r *Resolver) Err() error {
	return r.err
}
