package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dostini/dist-sys-runtime/internal/config"
	"github.com/dostini/dist-sys-runtime/internal/logging"
	"github.com/dostini/dist-sys-runtime/pkg/node"
	"github.com/rs/zerolog"
)

type GenericMessage struct {
	Type string `json:"type"`
}

type GenerateResponse struct {
	GenericMessage
	ID string `json:"id"`
}

func NewGenerateResponse(id string) GenerateResponse {
	return GenerateResponse{
		GenericMessage: GenericMessage{
			Type: "generate_ok",
		},
		ID: id,
	}
}

// idNode hands out ids of the form <node id>-<counter>. Node ids are unique in
// the cluster, so the ids are too.
type idNode struct {
	id      string
	counter uint64
	log     zerolog.Logger
}

func newIDNode(logger zerolog.Logger, cluster node.Init) (node.Node[GenericMessage], error) {
	if cluster.NodeID == "" {
		return nil, errors.New("empty node id")
	}
	return &idNode{id: cluster.NodeID, log: logger}, nil
}

func (n *idNode) Step(msg node.Message[GenericMessage], out *node.Output) error {
	switch msg.Body.Payload.Type {
	case "generate":
		n.counter++
		return node.Reply(out, msg, NewGenerateResponse(fmt.Sprintf("%s-%d", n.id, n.counter)))
	default:
		n.log.Warn().Str("type", msg.Body.Payload.Type).Msg("unsupported message")
		return node.ReplyError(out, msg, node.NotSupported(msg.Body.Payload.Type))
	}
}

func main() {
	logger := logging.New("unique-id", logging.DefaultConfig())
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load node config")
		os.Exit(1)
	}
	logger = logging.New("unique-id", cfg.Log)

	if err := node.Run(logger, newIDNode, node.WithLogger(logger)); err != nil {
		logger.Error().Err(err).Msg("node stopped")
		os.Exit(1)
	}
}
