package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"

	paygate "github.com/paygate-labs/paygate"
	"github.com/paygate-labs/paygate/ledger"
	"github.com/paygate-labs/paygate/logger"
	"github.com/paygate-labs/paygate/metrics"
	"github.com/paygate-labs/paygate/server"
	"github.com/paygate-labs/paygate/store"
	"github.com/paygate-labs/paygate/types"
)

var config struct {
	Addr      string `long:"addr" env:"PAYGATE_ADDR" description:"listen addr" default:":8000"`
	RPCURL    string `long:"rpc-url" env:"PAYGATE_RPC_URL" description:"read-only JSON-RPC endpoint" required:"true"`
	Network   string `long:"network" env:"PAYGATE_NETWORK" description:"payment network" default:"base-sepolia"`
	Currency  string `long:"currency" env:"PAYGATE_CURRENCY" description:"native asset symbol" default:"ETH"`
	Database  string `long:"database" env:"PAYGATE_DATABASE" description:"offer database path (.db for bolt, anything else JSON)" default:"database.json"`
	Uploads   string `long:"uploads" env:"PAYGATE_UPLOADS" description:"private uploads dir" default:"private-uploads"`
	Ledger    string `long:"ledger" env:"PAYGATE_LEDGER" description:"redemption ledger path; empty disables replay protection"`
	VerifyRPS int    `long:"verify-rps" env:"PAYGATE_VERIFY_RPS" description:"max chain-touching requests per second, 0 = unlimited" default:"0"`
	LogLevel  string `long:"log-level" env:"PAYGATE_LOG_LEVEL" description:"log level" default:"info"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := flags.ParseArgs(&config, os.Args); err != nil {
		os.Exit(1)
	}

	log := logger.NewZapLogger(config.LogLevel)
	network := types.Network(config.Network)

	var offerStore store.OfferStore
	if filepath.Ext(config.Database) == ".db" {
		bolt, err := store.OpenBoltStore(config.Database, network, config.Currency)
		if err != nil {
			log.Error("open offer store", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer func() { _ = bolt.Close() }()
		offerStore = bolt
	} else {
		offerStore = store.NewJSONStore(config.Database, network, config.Currency)
	}

	opts := []paygate.Option{
		paygate.WithLogger(log),
		paygate.WithMetrics(metrics.NewPrometheusRecorder()),
	}
	if config.Ledger != "" {
		l, err := ledger.Open(config.Ledger)
		if err != nil {
			log.Error("open redemption ledger", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		opts = append(opts, paygate.WithRedemptionLedger(l))
	}

	gw := paygate.New(offerStore, store.NewFSBlobStore(config.Uploads), opts...)
	defer gw.Close()

	if err := gw.AddNetwork(network, config.RPCURL); err != nil {
		log.Error("register network", map[string]any{
			"network": config.Network,
			"error":   err.Error(),
		})
		os.Exit(1)
	}

	s := server.New(config.Addr, server.NewDownloadHandler(gw, log, config.VerifyRPS))
	go func() {
		<-ctx.Done()
		log.Info("shutting down the http server", nil)
		if err := s.Shutdown(context.Background()); err != nil {
			log.Error("failed to shutdown http server", map[string]any{"error": err.Error()})
		}
	}()

	log.Info("starting http server", map[string]any{
		"addr":    config.Addr,
		"network": config.Network,
		"ledger":  config.Ledger != "",
	})
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Error("failed to listen and serve", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
