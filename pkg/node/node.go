package node

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Node is the node logic driven by the run loop. Step handles exactly one
// message and may write any number of messages to out before returning.
type Node[P any] interface {
	Step(msg Message[P], out *Output) error
}

// NodeFunc adapts a plain function to Node.
type NodeFunc[P any] func(msg Message[P], out *Output) error

func (f NodeFunc[P]) Step(msg Message[P], out *Output) error {
	return f(msg, out)
}

// Factory builds node state from a caller-supplied seed and the handshake's
// Init. It runs once, after init_ok has been written.
type Factory[S, P any] func(seed S, assigned Init) (Node[P], error)

type state int

const (
	stateAwaitingInit state = iota
	stateRunning
	stateTerminated
)

func (s state) String() string {
	switch s {
	case stateAwaitingInit:
		return "awaiting_init"
	case stateRunning:
		return "running"
	case stateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type options struct {
	logger  zerolog.Logger
	maxLine int
}

type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxLineSize rejects input lines longer than n bytes. Zero means no limit.
func WithMaxLineSize(n int) Option {
	return func(o *options) {
		o.maxLine = n
	}
}

// Run drives a node over stdin and stdout until input ends or an error occurs.
func Run[S, P any](seed S, factory Factory[S, P], opts ...Option) error {
	return Loop(os.Stdin, os.Stdout, seed, factory, opts...)
}

// Loop performs the init handshake on in/out, builds the node with factory and
// then feeds it every following line in order. It returns nil at end of input
// and the first error otherwise; nothing is read after a failure.
func Loop[S, P any](in io.Reader, out io.Writer, seed S, factory Factory[S, P], opts ...Option) error {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	l := &loop[S, P]{
		log:     o.logger,
		dec:     NewDecoder(in),
		out:     NewOutput(out),
		factory: factory,
	}
	l.dec.maxLine = o.maxLine
	l.out.log = o.logger

	err := l.run(seed)
	l.transition(stateTerminated, err)
	return err
}

type loop[S, P any] struct {
	log     zerolog.Logger
	state   state
	dec     *Decoder
	out     *Output
	factory Factory[S, P]
}

func (l *loop[S, P]) transition(to state, err error) {
	ev := l.log.Debug()
	if err != nil {
		ev = l.log.Error().Err(err)
	}
	ev.Stringer("from", l.state).Stringer("to", to).Msg("node state changed")
	l.state = to
}

func (l *loop[S, P]) run(seed S) error {
	assigned, _, err := Handshake(l.dec, l.out)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	n, err := l.factory(seed, assigned)
	if err != nil {
		return &InitError{Err: err}
	}
	if n == nil {
		return &InitError{Err: errors.New("factory returned no node")}
	}

	l.log.Info().
		Str("node_id", assigned.NodeID).
		Strs("node_ids", assigned.NodeIDs).
		Msg("node initialized")
	l.transition(stateRunning, nil)

	for {
		msg, err := Decode[P](l.dec)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		l.log.Debug().Int("line", l.dec.Line()).Bytes("msg", l.dec.Last()).Msg("received")

		if err := n.Step(msg, l.out); err != nil {
			return &StepError{
				Line: l.dec.Line(),
				Type: messageType(l.dec.Last()),
				Err:  err,
			}
		}
	}
}
