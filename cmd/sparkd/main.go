package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/sparkwallet/sparkd/internal/config"
	"github.com/sparkwallet/sparkd/internal/core/application"
	"github.com/sparkwallet/sparkd/internal/core/domain"
	sparksigner "github.com/sparkwallet/sparkd/internal/infrastructure/spark-signer"
	dbbadger "github.com/sparkwallet/sparkd/internal/infrastructure/storage/db/badger"
	"github.com/sparkwallet/sparkd/internal/infrastructure/storage/db/inmemory"
	"github.com/sparkwallet/sparkd/pkg/chain/esplora"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	depositRepository, closeDb, err := openDepositRepository()
	if err != nil {
		log.WithError(err).Fatal("error while opening db")
	}
	defer closeDb()

	chainSvc, err := esplora.NewService(config.GetString(config.ExplorerUrlKey))
	if err != nil {
		log.WithError(err).Fatal("error while connecting to explorer")
	}

	signerSvc, err := sparksigner.NewService(
		config.GetString(config.SignerAddrKey),
	)
	if err != nil {
		log.WithError(err).Fatal("error while connecting to spark signer")
	}

	signerGate := application.NewSignerGate()
	maxClaimFee := config.GetMaxDepositClaimFee()
	depositAddress := config.GetString(config.DepositAddressKey)

	depositSvc := application.NewDepositService(
		depositRepository, chainSvc, signerSvc, signerGate,
		maxClaimFee, depositAddress, config.GetNetworkParams(),
	)

	optimizerSvc, err := application.NewOptimizerService(
		signerSvc, signerSvc, signerGate, config.GetOptimizationConfig(),
	)
	if err != nil {
		log.WithError(err).Fatal("invalid optimization config")
	}

	watcher := application.NewDepositWatcher(
		depositRepository, chainSvc, depositSvc, depositAddress,
		config.GetCrawlInterval(), maxClaimFee != nil,
	)
	watcher.ObserveChain()
	defer watcher.StopObserveChain()

	if config.GetOptimizationConfig().AutoEnabled {
		startAutoOptimization(optimizerSvc)
	}

	log.Info("daemon is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	if err := optimizerSvc.CancelLeafOptimization(
		context.Background(),
	); err != nil {
		log.WithError(err).Warn("error while stopping leaf optimization")
	}

	log.Info("exiting")
}

func openDepositRepository() (domain.DepositRepository, func(), error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return inmemory.NewDepositRepositoryImpl(), func() {}, nil
	}

	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	dbManager, err := dbbadger.NewDbManager(dbDir, log.New())
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := dbManager.Close(); err != nil {
			log.WithError(err).Warn("error while closing db")
		}
	}
	return dbbadger.NewDepositRepositoryImpl(dbManager.Store), closeFn, nil
}

func startAutoOptimization(optimizerSvc application.OptimizerService) {
	ctx := context.Background()

	needed, err := optimizerSvc.NeedsOptimization(ctx)
	if err != nil {
		log.WithError(err).Warn("error while checking leaf set")
		return
	}
	if !needed {
		log.Debug("leaf set does not need optimization")
		return
	}

	log.Info("leaf set needs optimization, starting")
	optimizerSvc.StartLeafOptimization(ctx)
}
