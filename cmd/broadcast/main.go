package main

import (
	"os"

	"github.com/dostini/dist-sys-runtime/internal/config"
	"github.com/dostini/dist-sys-runtime/internal/logging"
	"github.com/dostini/dist-sys-runtime/pkg/node"
)

func main() {
	logger := logging.New("broadcast", logging.DefaultConfig())
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load node config")
		os.Exit(1)
	}
	logger = logging.New("broadcast", cfg.Log)

	if err := node.Run(logger, newBroadcastNode, node.WithLogger(logger)); err != nil {
		logger.Error().Err(err).Msg("node stopped")
		os.Exit(1)
	}
}
