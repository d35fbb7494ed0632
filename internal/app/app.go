package app

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"chargehub/internal/config"
	"chargehub/internal/dispatch"
	"chargehub/internal/events"
	"chargehub/internal/handlers"
	"chargehub/internal/httpapi"
	"chargehub/internal/ocpp"
	"chargehub/internal/presence"
	"chargehub/internal/reconcile"
	"chargehub/internal/repository"
	"chargehub/internal/service"
	"chargehub/internal/task"
	"chargehub/internal/transport/soap"
	"chargehub/internal/ws"
	"chargehub/libs/db"
	"chargehub/libs/logging"
	libredis "chargehub/libs/redis"
)

// App wires all dependencies for the server.
type App struct {
	httpServer *httpapi.Server
	db         *sql.DB
	manager    *ws.Manager
	publisher  *events.Publisher
	logger     *zap.Logger
}

// New builds the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	var online *presence.Store
	if cfg.Redis.Addr != "" {
		redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			return nil, err
		}
		online = presence.NewStore(redisClient, 3*cfg.WebSocket.PingInterval)
	}

	chargePointRepo := repository.NewChargePointRepository(sqlDB)
	connectorStatusRepo := repository.NewConnectorStatusRepository(sqlDB)
	profileRepo := repository.NewChargingProfileRepository(sqlDB)
	transactionRepo := repository.NewTransactionRepository(sqlDB)
	meterValueRepo := repository.NewMeterValueRepository(sqlDB)
	logRepo := repository.NewOcppLogRepository(sqlDB)

	publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logging.Named(logger, "events"))

	router := ocpp.NewRouter()
	processor := ocpp.NewProcessor(router, logRepo, logging.Named(logger, "ocpp"))
	handlers.Register(router, handlers.Dependencies{
		ChargePoints:    chargePointRepo,
		ConnectorStatus: connectorStatusRepo,
		Transactions:    transactionRepo,
		MeterValues:     meterValueRepo,
		Online:          online,
		Logger:          logging.Named(logger, "handlers"),
	})

	manager := ws.NewManager(cfg.WebSocket.PingInterval)
	wsLogger := logging.Named(logger, "ws")
	wsServer := ws.NewServer(manager, processor, online, cfg.WebSocket.WriteTimeout, cfg.WebSocket.CallTimeout, wsLogger)

	taskStore := task.NewStore()
	dispatchLogger := logging.Named(logger, "dispatch")
	dispatcher := dispatch.NewDispatcher(taskStore, online, profileRepo, publisher, dispatchLogger)
	dispatcher.RegisterAdapter(dispatch.NewOCPP16Adapter(manager, dispatchLogger))
	soapClient := soap.NewHTTPClient(cfg.WebSocket.CallTimeout)
	dispatcher.RegisterAdapter(dispatch.NewSOAPAdapter(ocpp.V12, soapClient, dispatchLogger))
	dispatcher.RegisterAdapter(dispatch.NewSOAPAdapter(ocpp.V15, soapClient, dispatchLogger))

	commandService := service.NewCommandService(chargePointRepo, profileRepo, dispatcher, logging.Named(logger, "commands"))
	reconciler := reconcile.NewReconciler(transactionRepo, meterValueRepo, logging.Named(logger, "reconcile"))

	tokens := httpapi.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.APIKeyHash, cfg.Auth.TokenTTL)
	handler := httpapi.NewRouter(httpapi.RouterDeps{
		Tokens:      tokens,
		Commands:    commandService,
		Tasks:       taskStore,
		Reconciler:  reconciler,
		OCPPUpgrade: wsServer.HandleWS,
	})
	httpServer := httpapi.NewServer(":"+cfg.HTTP.Port, handler, cfg.HTTP.ShutdownTimeout, logging.Named(logger, "http"))

	return &App{
		httpServer: httpServer,
		db:         sqlDB,
		manager:    manager,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

// Run starts the connection manager ping loop and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	go a.manager.Start(ctx)
	return a.httpServer.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
