package main

import (
	"errors"
	"net/http"
	"os"

	"tracker/migrations"
	"tracker/src/api"
	apicontrollers "tracker/src/api/controllers"
	apihandlers "tracker/src/api/handlers"
	"tracker/src/clients/yahoo"
	"tracker/src/config"
	"tracker/src/database"
	"tracker/src/repositories"
	"tracker/src/services"
	"tracker/src/utils"
	aws_handler "tracker/src/utils/aws"
	"tracker/src/worker"
	workercontrollers "tracker/src/worker/controllers"
	workerhandlers "tracker/src/worker/handlers"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.LoadConfig("./settings", os.Getenv("ENV"))
	if err != nil {
		logrus.WithError(err).Fatal("Error while loading config")
	}

	logger := utils.NewLogger(utils.ParseLogLevel(cfg.Logging.Level), cfg.Logging.ToFile, cfg.Logging.FilePath)

	if cfg.Databases.SQL.PasswordSecretID != "" {
		awsHandler, err := aws_handler.NewAWSHandler(cfg.AWS.Region)
		if err != nil {
			logger.WithError(err).Fatal("Couldn't create AWS session")
		}
		if err := awsHandler.ResolveDatabasePassword(cfg); err != nil {
			logger.WithError(err).Fatal("Couldn't read database password secret")
		}
	}

	if cfg.Service.Type == config.MIGRATE {
		if err := migrations.Up(cfg.Databases.SQL.DSN()); err != nil {
			logger.WithError(err).Fatal("Migration failed")
		}
		logger.Info("Database migration completed successfully")
		return
	}

	errC, err := run(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Couldn't run")
	}

	if err := <-errC; err != nil {
		logger.WithError(err).Error("Error while running")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) (<-chan error, error) {
	errC := make(chan error, 1)

	db, err := database.SetupDB(cfg)
	if err != nil {
		return nil, err
	}

	yahooClient, err := yahoo.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	tickerRepo := repositories.NewTickerRepository(db)
	positionRepo := repositories.NewPositionRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	tickerDataRepo := repositories.NewTickerDataRepository(db)
	locker := repositories.NewTickerLocker(db)

	valuationService := services.NewValuationService(yahooClient, cfg)
	ledgerService := services.NewLedgerService(tickerRepo, positionRepo, transactionRepo, tickerDataRepo, locker,
		valuationService, cfg.Ledger.BackfillOnBuy, cfg.Ledger.Currency)

	var httpServer *http.Server
	if cfg.Service.Type == config.WORKER {
		controller := workercontrollers.NewController(ledgerService)
		server := worker.NewServer(workerhandlers.NewHandler(controller), logger)
		httpServer = worker.NewHTTPServer(server, cfg.Service.Port)
	} else {
		portfolioService := services.NewPortfolioService(tickerRepo, positionRepo, transactionRepo, tickerDataRepo,
			valuationService, ledgerService, cfg.Ledger.ListConcurrency, cfg.Ledger.Currency)
		controller := apicontrollers.NewController(ledgerService, portfolioService, valuationService)
		handler := apihandlers.NewHandler(controller)
		httpServer = api.NewHTTPServer(api.NewServer(handler, logger), cfg.Service.Port)
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port": cfg.Service.Port,
			"type": cfg.Service.Type,
		}).Info("Starting server")

		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			db.Close()
			errC <- err
		}
	}()
	return errC, nil
}
