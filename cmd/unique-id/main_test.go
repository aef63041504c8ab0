package main

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/dostini/dist-sys-runtime/pkg/node"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueIDs(t *testing.T) {
	lines := []string{`{"src":"c1","dest":"n2","body":{"type":"init","msg_id":1,"node_id":"n2","node_ids":["n1","n2"]}}`}
	for i := 2; i < 12; i++ {
		lines = append(lines, `{"src":"c1","dest":"n2","body":{"type":"generate","msg_id":`+strconv.Itoa(i)+`}}`)
	}
	var out bytes.Buffer

	require.NoError(t, node.Loop(strings.NewReader(strings.Join(lines, "\n")), &out, zerolog.Nop(), newIDNode))

	replies := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")[1:]
	require.Len(t, replies, 10)

	seen := map[string]bool{}
	for _, reply := range replies {
		var msg node.Message[GenerateResponse]
		require.NoError(t, json.Unmarshal([]byte(reply), &msg))
		require.Equal(t, "generate_ok", msg.Body.Payload.Type)
		require.True(t, strings.HasPrefix(msg.Body.Payload.ID, "n2-"))
		require.False(t, seen[msg.Body.Payload.ID])
		seen[msg.Body.Payload.ID] = true
	}
}

func TestEmptyNodeIDFailsConstruction(t *testing.T) {
	in := strings.NewReader(`{"src":"c1","dest":"","body":{"type":"init","msg_id":1,"node_id":"","node_ids":[]}}`)
	var out bytes.Buffer

	err := node.Loop(in, &out, zerolog.Nop(), newIDNode)

	var initErr *node.InitError
	require.ErrorAs(t, err, &initErr)
}
