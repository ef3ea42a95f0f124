package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chainsphere/config"
	"chainsphere/core/events"
	"chainsphere/core/state"
	"chainsphere/native/feegate"
	"chainsphere/native/rewards"
	"chainsphere/native/social"
	"chainsphere/observability/logging"
	"chainsphere/observability/metrics"
	"chainsphere/oracle"
	"chainsphere/rpc"
	"chainsphere/services/indexer"
	"chainsphere/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the node configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup("chainsphered", "").Error("load config failed", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("chainsphered", cfg.Env)

	owner, _ := config.ParseAddress(cfg.OwnerAddress)
	pool, _ := config.ParseAddress(cfg.PoolAddress)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data dir failed", "error", err)
		os.Exit(1)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("open ledger database failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	manager := state.NewManager(db)

	eventCounter := metrics.NewEventCounter()
	emitters := events.Fanout{events.NewLogEmitter(logger), eventCounter}
	ix, err := indexer.Open(filepath.Join(cfg.DataDir, "index.db"), logger)
	if err != nil {
		logger.Error("open event index failed", "error", err)
		os.Exit(1)
	}
	defer ix.Close()
	emitters = append(emitters, ix)

	devPrice, ok := new(big.Int).SetString(cfg.DevPrice, 10)
	if !ok || devPrice.Sign() <= 0 {
		logger.Error("invalid DevPrice", "value", cfg.DevPrice)
		os.Exit(1)
	}
	feed := oracle.NewStaticFeed(devPrice, cfg.DevPriceDecimals, time.Now().Unix())
	coordinator := oracle.NewSimCoordinator()
	gate := feegate.NewGate(feed)

	editFee := feegate.FromCents(cfg.EditFeeUSDCents)
	deleteFee := feegate.FromCents(cfg.DeleteFeeUSDCents)

	socialEngine := social.NewEngine()
	socialEngine.SetState(manager)
	socialEngine.SetEmitter(emitters)
	socialEngine.SetFeeGate(gate)
	socialEngine.SetFees(editFee, deleteFee)
	socialEngine.SetOwner(owner)
	socialEngine.SetPoolAccount(pool)

	rewardEngine, err := rewards.NewEngine(rewards.Config{
		IntervalSeconds: cfg.RewardIntervalSeconds,
		Threshold:       cfg.EligibilityThreshold,
		WinnerHistory:   cfg.WinnerHistory,
		NumWords:        cfg.RandomWords,
	})
	if err != nil {
		logger.Error("reward engine config invalid", "error", err)
		os.Exit(1)
	}
	rewardEngine.SetState(manager)
	rewardEngine.SetEmitter(emitters)
	rewardEngine.SetCoordinator(coordinator)
	rewardEngine.SetPoolAccount(pool)
	coordinator.SetConsumer(rewardEngine)

	if err := rewardEngine.InitWindow(time.Now().Unix()); err != nil {
		logger.Error("init reward window failed", "error", err)
		os.Exit(1)
	}

	server := rpc.NewServer(socialEngine, rewardEngine, gate, editFee, deleteFee, logger)
	server.SetMetricsHandler(eventCounter.Handler())
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runUpkeep(ctx, cfg, logger, rewardEngine, coordinator)

	go func() {
		logger.Info("rpc listening", "address", cfg.RPCAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("rpc shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
}

// runUpkeep is the dev-mode keeper: it polls the due predicate on a fixed
// cadence, performs upkeep when due and lets the simulated coordinator
// fulfil outstanding requests one poll later, which preserves the
// request/response gap of the real service.
func runUpkeep(ctx context.Context, cfg *config.Config, logger *slog.Logger, engine *rewards.Engine, coordinator *oracle.SimCoordinator) {
	poll := time.Duration(cfg.UpkeepPollSeconds) * time.Second
	if poll <= 0 {
		poll = 15 * time.Second
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := coordinator.FulfillPending(); err != nil {
				logger.Error("randomness fulfilment failed", "error", err)
			}
			now := time.Now().Unix()
			due, err := engine.CheckDue(now)
			if err != nil {
				logger.Error("upkeep check failed", "error", err)
				continue
			}
			if !due {
				continue
			}
			round, err := engine.BeginRound(now)
			if err != nil {
				if errors.Is(err, rewards.ErrRoundPending) || errors.Is(err, rewards.ErrUpkeepNotDue) {
					continue
				}
				logger.Error("perform upkeep failed", "error", err)
				continue
			}
			logger.Info("reward round started", "roundId", round.ID, "poolSize", len(round.Pool))
		}
	}
}
