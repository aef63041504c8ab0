package node

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Output is the sink node logic writes replies to. Every message is written as
// one line and flushed before Emit returns. Node logic must not keep an
// Output past the Step call it was handed to.
type Output struct {
	w      *bufio.Writer
	log    zerolog.Logger
	nodeID string
	lastID uint64
}

func NewOutput(w io.Writer) *Output {
	return &Output{w: bufio.NewWriter(w), log: zerolog.Nop()}
}

func (o *Output) bind(nodeID string) {
	o.nodeID = nodeID
}

// NodeID is the identity assigned by the handshake.
func (o *Output) NodeID() string {
	return o.nodeID
}

// NextID allocates a message id. The handshake reply owns id 0, so the first
// id handed out here is 1.
func (o *Output) NextID() uint64 {
	o.lastID++
	return o.lastID
}

func (o *Output) Emit(msg json.Marshaler) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	data = append(data, '\n')

	if _, err := o.w.Write(data); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	if err := o.w.Flush(); err != nil {
		return &IOError{Op: "write", Err: err}
	}

	o.log.Debug().Bytes("line", data[:len(data)-1]).Msg("sent")
	return nil
}

// Reply answers req with payload, correlating it through in_reply_to.
func Reply[P, R any](out *Output, req Message[P], payload R) error {
	id := out.NextID()
	return out.Emit(Message[R]{
		Src: req.Dst,
		Dst: req.Src,
		Body: Body[R]{
			ID:        &id,
			InReplyTo: req.Body.ID,
			Payload:   payload,
		},
	})
}

// Send writes a new message from this node to dest and returns the msg_id it
// was given, so replies can be matched through in_reply_to.
func Send[R any](out *Output, dest string, payload R) (uint64, error) {
	id := out.NextID()
	err := out.Emit(Message[R]{
		Src: out.NodeID(),
		Dst: dest,
		Body: Body[R]{
			ID:      &id,
			Payload: payload,
		},
	})
	return id, err
}
