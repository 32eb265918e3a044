package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/aji70/pay-nova/config"
	"github.com/aji70/pay-nova/core/events"
	"github.com/aji70/pay-nova/core/state"
	"github.com/aji70/pay-nova/native/paynova"
	"github.com/aji70/pay-nova/observability/logging"
	"github.com/aji70/pay-nova/rpc"
	"github.com/aji70/pay-nova/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("PAYNOVA_ENV"))
	logger := logging.Setup("paynovad", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.String("dir", cfg.DataDir), slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	recorder := events.NewRecorder(cfg.EventBacklog)

	engine := paynova.NewEngine()
	engine.SetState(manager)
	engine.SetTokenRegistry(paynova.NewStaticRegistry())
	engine.SetEmitter(recorder)

	vault, err := config.ParseAddress(cfg.VaultAddress)
	if err != nil {
		logger.Error("invalid vault address", slog.Any("error", err))
		os.Exit(1)
	}
	engine.SetVault(vault)

	if strings.TrimSpace(cfg.OwnerAddress) != "" {
		owner, err := config.ParseAddress(cfg.OwnerAddress)
		if err != nil {
			logger.Error("invalid owner address", slog.Any("error", err))
			os.Exit(1)
		}
		if err := engine.InitOwner(owner); err != nil {
			logger.Error("failed to initialise owner", slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("ledger ready",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
		slog.String("data_dir", cfg.DataDir),
	)

	server := rpc.NewServer(engine, recorder, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
