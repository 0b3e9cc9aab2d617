// Package devnet boots the in-process chain, the HTTP API, and the event
// indexer as one long-running process.
package devnet

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/powergrid/powergrid-der/chain"
	"github.com/powergrid/powergrid-der/cli/conf"
	"github.com/powergrid/powergrid-der/indexer"
	"github.com/powergrid/powergrid-der/logger"
	"github.com/powergrid/powergrid-der/server"
)

// Serve runs the devnet until interrupted. The indexer syncs the event log
// into the configured sqlite file every two seconds.
func Serve() {
	conf.InitConfig()
	log := logger.NewLogger("powergrid-devnet")
	log.SetLogLevel(conf.C.LogLevel)

	if !common.IsHexAddress(conf.C.Devnet.Admin) {
		panic(fmt.Sprintf("devnet.admin %q is not a hex address", conf.C.Devnet.Admin))
	}
	if !common.IsHexAddress(conf.C.Devnet.Holder) {
		panic(fmt.Sprintf("devnet.holder %q is not a hex address", conf.C.Devnet.Holder))
	}
	genesis := chain.DefaultGenesis(
		common.HexToAddress(conf.C.Devnet.Admin),
		common.HexToAddress(conf.C.Devnet.Holder),
	)
	genesis.StartTime = uint64(time.Now().Unix())

	c, err := chain.New(genesis, log)
	if err != nil {
		panic(err)
	}
	log.Info("devnet chain deployed",
		logger.WithField("token", c.Addresses().Token.Hex()),
		logger.WithField("registry", c.Addresses().Registry.Hex()),
		logger.WithField("grid", c.Addresses().Grid.Hex()),
		logger.WithField("governance", c.Addresses().Governance.Hex()))

	ix, err := indexer.Open(conf.C.Devnet.DB, log)
	if err != nil {
		panic(err)
	}
	defer ix.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go syncLoop(ctx, ix, c, log)

	srv := server.New(c, log, server.NewPromIndicators(prometheus.DefaultRegisterer))
	go func() {
		if err := srv.Run(conf.C.Devnet.Listen); err != nil {
			log.Error("api stopped", logger.WithField("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("devnet shutting down")
}

func syncLoop(ctx context.Context, ix *indexer.Indexer, c *chain.Chain, log logger.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := ix.Sync(c)
			if err != nil {
				log.Warn("indexer sync failed", logger.WithField("error", err.Error()))
				continue
			}
			if n > 0 {
				log.Debug("indexed events", logger.WithField("count", n))
			}
		}
	}
}
