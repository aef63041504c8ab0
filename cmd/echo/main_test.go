package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dostini/dist-sys-runtime/pkg/node"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestEchoNode(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}`,
		`{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":2,"echo":{"nested":[1,2]}}}`,
		`{"src":"c1","dest":"n1","body":{"type":"generate","msg_id":3}}`,
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, node.Loop(in, &out, zerolog.Nop(), newEchoNode))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.JSONEq(t, `{"src":"n1","dest":"c1","body":{"msg_id":1,"in_reply_to":2,"type":"echo_ok","echo":{"nested":[1,2]}}}`, lines[1])
	require.JSONEq(t, `{"src":"n1","dest":"c1","body":{"msg_id":2,"in_reply_to":3,"type":"error","code":10,"text":"unsupported message type: generate"}}`, lines[2])
}
