package main

import (
	"encoding/json"
	"os"

	"github.com/dostini/dist-sys-runtime/internal/config"
	"github.com/dostini/dist-sys-runtime/internal/logging"
	"github.com/dostini/dist-sys-runtime/pkg/node"
	"github.com/rs/zerolog"
)

type echoRequest struct {
	Type string          `json:"type"`
	Echo json.RawMessage `json:"echo,omitempty"`
}

type echoResponse struct {
	Type string          `json:"type"`
	Echo json.RawMessage `json:"echo"`
}

type echoNode struct {
	log zerolog.Logger
}

func newEchoNode(logger zerolog.Logger, cluster node.Init) (node.Node[echoRequest], error) {
	return &echoNode{log: logger.With().Str("node", cluster.NodeID).Logger()}, nil
}

func (n *echoNode) Step(msg node.Message[echoRequest], out *node.Output) error {
	switch msg.Body.Payload.Type {
	case "echo":
		return node.Reply(out, msg, echoResponse{Type: "echo_ok", Echo: msg.Body.Payload.Echo})
	default:
		n.log.Warn().Str("type", msg.Body.Payload.Type).Msg("unsupported message")
		return node.ReplyError(out, msg, node.NotSupported(msg.Body.Payload.Type))
	}
}

func main() {
	logger := logging.New("echo", logging.DefaultConfig())
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load node config")
		os.Exit(1)
	}
	logger = logging.New("echo", cfg.Log)

	if err := node.Run(logger, newEchoNode, node.WithLogger(logger)); err != nil {
		logger.Error().Err(err).Msg("node stopped")
		os.Exit(1)
	}
}
