package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "shuttletrack/backend/libs/db"
	libredis "shuttletrack/backend/libs/redis"
	"shuttletrack/backend/services/telemetry-service/internal/analytics"
	"shuttletrack/backend/services/telemetry-service/internal/broker"
	"shuttletrack/backend/services/telemetry-service/internal/cache"
	"shuttletrack/backend/services/telemetry-service/internal/config"
	httpserver "shuttletrack/backend/services/telemetry-service/internal/http"
	"shuttletrack/backend/services/telemetry-service/internal/http/handlers"
	"shuttletrack/backend/services/telemetry-service/internal/ingest"
	"shuttletrack/backend/services/telemetry-service/internal/live"
	"shuttletrack/backend/services/telemetry-service/internal/metrics"
	"shuttletrack/backend/services/telemetry-service/internal/repository"
	"shuttletrack/backend/services/telemetry-service/internal/zone"
)

// App wires telemetry-service dependencies.
type App struct {
	server      *httpserver.Server
	brokerConn  *broker.Client
	dispatcher  *ingest.Dispatcher
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Writes come from the single dispatcher worker; only the query endpoints
	// fan out, so a small pool is plenty.
	sqlDB, err := libdb.NewPostgresDBWithLimits(cfg.Database.DSN, libdb.PoolLimits{
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	if err != nil {
		return nil, err
	}

	// Redis is an optional fast path; the service runs without it.
	var redisClient *redis.Client
	var positions ingest.PositionCache
	if cfg.Redis.Addr != "" {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		positions = cache.NewPositionCache(redisClient, cfg.CacheTTL())
	}

	shuttleRepo := repository.NewShuttleRepository(sqlDB)
	historyRepo := repository.NewHistoryRepository(sqlDB)
	zoneRepo := repository.NewZoneRepository(sqlDB)
	blockedRepo := repository.NewBlockedRepository(sqlDB)

	m := metrics.New()
	hub := live.NewHub(logger)
	matcher := zone.NewMatcher(zoneRepo, m, logger)
	engine := analytics.NewEngine(historyRepo, logger)

	brokerConn, err := broker.NewClient(broker.Config{
		BrokerURL:      cfg.MQTT.BrokerURL,
		ClientID:       cfg.MQTT.ClientID,
		ConnectTimeout: cfg.MQTT.ConnectTimeout,
	}, m, logger)
	if err != nil {
		if redisClient != nil {
			redisClient.Close()
		}
		sqlDB.Close()
		return nil, err
	}

	pipeline := ingest.NewPipeline(
		shuttleRepo,
		historyRepo,
		blockedRepo,
		matcher,
		positions,
		brokerConn,
		hub,
		m,
		logger,
		ingest.Options{
			ZoneMatchOnPositionOnly: cfg.Pipeline.ZoneMatchOnPositionOnly,
			TotalSeats:              cfg.Pipeline.TotalSeats,
			DoorCounterMAC:          cfg.Pipeline.DoorCounterMAC,
		},
	)

	dispatcher := ingest.NewDispatcher(cfg.Pipeline.QueueSize, m, logger)
	listener := ingest.NewListener(dispatcher, pipeline, m, logger)
	listener.Bind(brokerConn)

	routes := httpserver.Routes{
		Heatmap:    handlers.NewHeatmapHandler(engine),
		TimeSeries: handlers.NewTimeSeriesHandler(engine),
		Stats:      handlers.NewStatsHandler(engine),
		Shuttles:   handlers.NewShuttlesHandler(shuttleRepo, logger),
		History:    handlers.NewHistoryHandler(historyRepo, logger),
		Zones:      handlers.NewZonesHandler(zoneRepo, logger),
		ZoneByID:   handlers.NewZoneByIDHandler(zoneRepo, logger),
		Ring:       handlers.NewRingHandler(brokerConn, logger),
		Live:       hub,
		Health:     handlers.NewHealthHandler(sqlDB),
		Metrics:    m.Handler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		brokerConn:  brokerConn,
		dispatcher:  dispatcher,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the ingestion workers, connects to the broker and serves HTTP
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.dispatcher.Start(ctx)

	if err := a.brokerConn.Connect(); err != nil {
		return err
	}

	return a.server.Run(ctx)
}

// Close releases resources. Pending dispatcher jobs are drained first so
// in-flight readings still reach the stores.
func (a *App) Close() {
	a.brokerConn.Close()
	a.dispatcher.Wait()

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
