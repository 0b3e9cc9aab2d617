// Package oraclecmd runs the off-chain metering node from its TOML config.
package oraclecmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/powergrid/powergrid-der/cli/conf"
	"github.com/powergrid/powergrid-der/logger"
	"github.com/powergrid/powergrid-der/oracle"
)

// Run starts the node and blocks until interrupted. An empty path falls back
// to the oracle.config entry in powergrid.toml.
func Run(configPath string) {
	conf.InitConfig()
	if configPath == "" {
		configPath = conf.C.Oracle.Config
	}
	cfg, err := oracle.LoadConfig(configPath)
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger("powergrid-oracle")
	log.SetLogLevel(cfg.LogLevel)
	ind := oracle.NewPromIndicators(prometheus.NewRegistry())

	node, err := oracle.NewNodeFromConfig(cfg, log, ind)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := node.Run(ctx); err != nil {
		panic(err)
	}
}
