package node

import (
	"errors"
	"fmt"
)

var (
	ErrProtocol               = errors.New("protocol violation")
	ErrMissingInit            = fmt.Errorf("%w: input ended before init", ErrProtocol)
	ErrUnexpectedFirstMessage = fmt.Errorf("%w: first message is not init", ErrProtocol)

	ErrReservedField    = errors.New("payload uses a reserved body field")
	ErrPayloadNotObject = errors.New("payload does not encode to a JSON object")
	ErrLineTooLong      = errors.New("line exceeds maximum size")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidUTF8      = errors.New("line is not valid UTF-8")
)

// DecodeError reports an input line that is not a well-formed message.
type DecodeError struct {
	Line int
	Raw  string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode line %d %q: %v", e.Line, e.Raw, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("construct node: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// StepError wraps a failure returned by node logic while handling the
// message read from Line.
type StepError struct {
	Line int
	Type string
	Err  error
}

func (e *StepError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("step failed on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("step failed on line %d (%s): %v", e.Line, e.Type, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
