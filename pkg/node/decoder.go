package node

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"
)

// rawContextLimit bounds how much of an offending line a DecodeError keeps.
const rawContextLimit = 512

// Decoder frames an input stream into newline-terminated lines. A final line
// without a trailing newline is still returned.
type Decoder struct {
	r       *bufio.Reader
	maxLine int
	line    int
	last    []byte
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Line is the 1-based number of the last line read.
func (d *Decoder) Line() int {
	return d.line
}

// Last returns the last line read, without its terminator.
func (d *Decoder) Last() []byte {
	return d.last
}

// ReadLine returns io.EOF once the stream ends cleanly.
func (d *Decoder) ReadLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := d.r.ReadSlice('\n')
		line = append(line, chunk...)
		if d.maxLine > 0 && len(line) > d.maxLine+2 {
			d.line++
			return nil, d.decodeError(line, ErrLineTooLong)
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil, io.EOF
			}
			break
		}
		return nil, &IOError{Op: "read", Err: err}
	}

	d.line++
	line = bytes.TrimRight(line, "\r\n")
	if d.maxLine > 0 && len(line) > d.maxLine {
		return nil, d.decodeError(line, ErrLineTooLong)
	}
	d.last = line
	return line, nil
}

func (d *Decoder) decodeError(line []byte, err error) *DecodeError {
	raw := line
	if len(raw) > rawContextLimit {
		raw = raw[:rawContextLimit]
	}
	return &DecodeError{Line: d.line, Raw: string(raw), Err: err}
}

// Decode reads the next line from d as a Message[P].
func Decode[P any](d *Decoder) (Message[P], error) {
	line, err := d.ReadLine()
	if err != nil {
		return Message[P]{}, err
	}

	if !utf8.Valid(line) {
		return Message[P]{}, d.decodeError(line, ErrInvalidUTF8)
	}

	var msg Message[P]
	if err := json.Unmarshal(line, &msg); err != nil {
		return Message[P]{}, d.decodeError(line, err)
	}
	return msg, nil
}
