package node

import (
	"errors"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
)

const TypeError = "error"

type ErrorPayload struct {
	Type string `json:"type"`
	Code int    `json:"code"`
	Text string `json:"text,omitempty"`
}

// ReplyError answers req with an error body. Errors that are not a
// *maelstrom.RPCError are reported as a crash.
func ReplyError[P any](out *Output, req Message[P], err error) error {
	var rpcErr *maelstrom.RPCError
	if !errors.As(err, &rpcErr) {
		rpcErr = maelstrom.NewRPCError(maelstrom.Crash, err.Error())
	}

	return Reply(out, req, ErrorPayload{
		Type: TypeError,
		Code: rpcErr.Code,
		Text: rpcErr.Text,
	})
}

// NotSupported is the error node logic replies with for message types it does
// not handle.
func NotSupported(msgType string) error {
	return maelstrom.NewRPCError(maelstrom.NotSupported, "unsupported message type: "+msgType)
}
