// Command tradecore is the single-process composition root for all seven
// bounded contexts. Grounded on cmd/algotrading/main.go and
// cmd/funding/main.go's app.NewBuilder[*Config,*AppContext] bootstrap chain,
// enriched with cmd/risk/main.go's outbox/Kafka/Redis wiring style. Unlike a
// microservice-per-bounded-context layout, every context here shares one
// process and one database: cross-context composition happens by
// constructing each side's infrastructure adapter and handing its .Port()
// value to the consuming context's constructor, never via gRPC.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	"github.com/wyfcoding/pkg/app"
	"github.com/wyfcoding/pkg/cache"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"github.com/wyfcoding/pkg/middleware"

	"github.com/rnrl/tradecore/internal/platform/authctx"

	availapp "github.com/rnrl/tradecore/internal/availability/application"
	availdomain "github.com/rnrl/tradecore/internal/availability/domain"
	availinfra "github.com/rnrl/tradecore/internal/availability/infrastructure"
	availmysql "github.com/rnrl/tradecore/internal/availability/infrastructure/persistence/mysql"
	availhttp "github.com/rnrl/tradecore/internal/availability/interfaces/http"

	eventlogapp "github.com/rnrl/tradecore/internal/eventlog/application"
	eventlogdomain "github.com/rnrl/tradecore/internal/eventlog/domain"
	eventlogmysql "github.com/rnrl/tradecore/internal/eventlog/infrastructure/persistence/mysql"
	eventlogconsumer "github.com/rnrl/tradecore/internal/eventlog/interfaces/consumer"
	eventloghttp "github.com/rnrl/tradecore/internal/eventlog/interfaces/http"

	matchapp "github.com/rnrl/tradecore/internal/matching/application"
	matchdomain "github.com/rnrl/tradecore/internal/matching/domain"
	matchinfra "github.com/rnrl/tradecore/internal/matching/infrastructure"
	matchredis "github.com/rnrl/tradecore/internal/matching/infrastructure/persistence/redis"

	mtapp "github.com/rnrl/tradecore/internal/matchtoken/application"
	mtinfra "github.com/rnrl/tradecore/internal/matchtoken/infrastructure"
	mtredis "github.com/rnrl/tradecore/internal/matchtoken/infrastructure/persistence/redis"
	mthttp "github.com/rnrl/tradecore/internal/matchtoken/interfaces/http"

	negapp "github.com/rnrl/tradecore/internal/negotiation/application"
	negdomain "github.com/rnrl/tradecore/internal/negotiation/domain"
	neginfra "github.com/rnrl/tradecore/internal/negotiation/infrastructure"
	"github.com/rnrl/tradecore/internal/negotiation/infrastructure/aiadvisor"
	negmysql "github.com/rnrl/tradecore/internal/negotiation/infrastructure/persistence/mysql"
	negredislock "github.com/rnrl/tradecore/internal/negotiation/infrastructure/persistence/redis"
	neghttp "github.com/rnrl/tradecore/internal/negotiation/interfaces/http"

	partnerdomain "github.com/rnrl/tradecore/internal/partner/domain"
	partnerinfra "github.com/rnrl/tradecore/internal/partner/infrastructure"
	partnermysql "github.com/rnrl/tradecore/internal/partner/infrastructure/persistence/mysql"

	rtapp "github.com/rnrl/tradecore/internal/realtime/application"
	rtdomain "github.com/rnrl/tradecore/internal/realtime/domain"
	rtinfra "github.com/rnrl/tradecore/internal/realtime/infrastructure"
	rtredis "github.com/rnrl/tradecore/internal/realtime/infrastructure/redis"
	rtws "github.com/rnrl/tradecore/internal/realtime/infrastructure/ws"

	reqapp "github.com/rnrl/tradecore/internal/requirement/application"
	reqdomain "github.com/rnrl/tradecore/internal/requirement/domain"
	reqinfra "github.com/rnrl/tradecore/internal/requirement/infrastructure"
	reqmysql "github.com/rnrl/tradecore/internal/requirement/infrastructure/persistence/mysql"
	reqhttp "github.com/rnrl/tradecore/internal/requirement/interfaces/http"

	riskapp "github.com/rnrl/tradecore/internal/risk/application"
	riskdomain "github.com/rnrl/tradecore/internal/risk/domain"
	riskinfra "github.com/rnrl/tradecore/internal/risk/infrastructure"
	riskmysql "github.com/rnrl/tradecore/internal/risk/infrastructure/persistence/mysql"
	"github.com/rnrl/tradecore/internal/risk/infrastructure/rules"

	tradeapp "github.com/rnrl/tradecore/internal/trade/application"
	tradedomain "github.com/rnrl/tradecore/internal/trade/domain"
	tradeinfra "github.com/rnrl/tradecore/internal/trade/infrastructure"
	"github.com/rnrl/tradecore/internal/trade/infrastructure/contractrender"
	trademysql "github.com/rnrl/tradecore/internal/trade/infrastructure/persistence/mysql"
	tradehttp "github.com/rnrl/tradecore/internal/trade/interfaces/http"
)

// BootstrapName is this process's service identity for config/metrics/tracing.
const BootstrapName = "tradecore"

// Config layers this service's domain-specific knobs on top of the shared
// ambient config.Config, the same `mapstructure:",squash"` pattern every
// cmd/*/main.go in the module uses.
type Config struct {
	config.Config `mapstructure:",squash"`
	Tradecore      struct {
		JWTSecret            string `mapstructure:"jwt_secret" toml:"jwt_secret"`
		MaxMatchRadiusKM     int    `mapstructure:"max_match_radius_km" toml:"max_match_radius_km"`
		NegotiationExpiryHrs int    `mapstructure:"negotiation_expiry_hours" toml:"negotiation_expiry_hours"`
		ReservationHoldHours int    `mapstructure:"reservation_hold_hours" toml:"reservation_hold_hours"`
		RiskLookbackDays     int    `mapstructure:"risk_lookback_days" toml:"risk_lookback_days"`
		ContractDir          string `mapstructure:"contract_dir" toml:"contract_dir"`
		MatchingWorkerCount  int    `mapstructure:"matching_worker_count" toml:"matching_worker_count"`
		MatchingQueueBuffer  int    `mapstructure:"matching_queue_buffer" toml:"matching_queue_buffer"`
		ExpirySweepIntervalS int    `mapstructure:"expiry_sweep_interval_seconds" toml:"expiry_sweep_interval_seconds"`
		EventArchiveRetries  int    `mapstructure:"event_archive_retries" toml:"event_archive_retries"`
		EventArchiveWorkers  int    `mapstructure:"event_archive_workers" toml:"event_archive_workers"`
	} `mapstructure:"tradecore" toml:"tradecore"`
}

// AppContext wires every bounded context's command/query services and HTTP
// handlers together for registerGin to mount.
type AppContext struct {
	Config *Config

	requirementHTTP  *reqhttp.Handler
	availabilityHTTP *availhttp.Handler
	negotiationHTTP  *neghttp.Handler
	matchtokenHTTP   *mthttp.Handler
	tradeHTTP        *tradehttp.Handler
	eventlogHTTP     *eventloghttp.Handler
	realtimeWS       *rtws.Handler

	dispatcher *matchapp.Dispatcher
	negCmds    *negapp.CommandService

	Metrics *metrics.Metrics
}

func main() {
	if err := app.NewBuilder[*Config, *AppContext](BootstrapName).
		WithConfig(&Config{}).
		WithService(initService).
		WithGRPC(registerGRPC).
		WithGin(registerGin).
		WithGinMiddleware(
			middleware.CORS(),
			middleware.TimeoutMiddleware(30*time.Second),
		).
		Build().
		Run(); err != nil {
		slog.Error("service bootstrap failed", "error", err)
	}
}

// registerGRPC is a deliberate no-op: every cross-context call in this
// process is an in-process adapter, not a network RPC, so there is no
// external gRPC contract to register. Kept to satisfy the Builder chain,
// matching cmd/algotrading/main.go's own no-op registerGRPC.
func registerGRPC(_ *grpc.Server, _ *AppContext) {}

func registerGin(e *gin.Engine, ctx *AppContext) {
	if ctx.Config.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	secret := []byte(ctx.Config.Tradecore.JWTSecret)
	api := e.Group("/api/v1", authctx.Middleware(secret), authctx.CorrelationID())
	{
		ctx.requirementHTTP.RegisterRoutes(api)
		ctx.availabilityHTTP.RegisterRoutes(api)
		ctx.negotiationHTTP.RegisterRoutes(api)
		ctx.matchtokenHTTP.RegisterRoutes(api)
		ctx.tradeHTTP.RegisterRoutes(api)
		ctx.eventlogHTTP.RegisterRoutes(api)
		ctx.realtimeWS.RegisterRoutes(api)
	}
}

func initService(cfg *Config, m *metrics.Metrics) (*AppContext, func(), error) {
	bootLog := slog.With("module", "bootstrap")
	logger := logging.Default()
	dc := cfg.Tradecore

	// 1. Database
	dbWrapper, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init db: %w", err)
	}
	db := dbWrapper.RawDB()

	if err := db.AutoMigrate(
		&outbox.Message{},
		&reqdomain.Requirement{},
		&availdomain.Availability{}, &availdomain.Reservation{},
		&negdomain.Negotiation{},
		&tradedomain.Trade{}, &tradedomain.Milestone{}, &tradedomain.Amendment{},
		&riskdomain.Assessment{},
		&partnerdomain.Branch{},
		&eventlogdomain.Event{}, &eventlogdomain.DeadLetter{},
	); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	// 2. Redis
	redisCache, err := cache.NewRedisCache(&cfg.Data.Redis, cfg.CircuitBreaker, logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}
	redisClient := redisCache.GetClient()

	// 3. Kafka & outbox
	producer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, m)
	outboxMgr := outbox.NewManager(db, logger.Logger)
	outboxProc := outbox.NewProcessor(outboxMgr, func(ctx context.Context, topic, key string, payload []byte) error {
		return producer.PublishToTopic(ctx, topic, []byte(key), payload)
	}, 100, 5*time.Second)
	outboxProc.Start()
	publisher := outbox.NewPublisher(outboxMgr)

	// 4. Repositories
	reqRepo := reqmysql.NewRequirementRepository(db)
	availRepo := availmysql.NewAvailabilityRepository(db)
	resRepo := availmysql.NewReservationRepository(db)
	negRepo := negredislock.NewCachingRepository(negmysql.NewNegotiationRepository(db), redisClient)
	tradeRepo := trademysql.NewTradeRepository(db)
	dedupStore := matchredis.NewDedupStore(redisClient)
	tokenRepo := mtredis.NewTokenRepository(redisClient)
	riskRepo := riskmysql.NewEvaluatorRepository(db)
	branchRepo := partnermysql.NewBranchRepository(db)
	eventRepo := eventlogmysql.NewEventRepository(db)

	// 5. C2 Risk & Compliance — built first since requirement/availability/
	// matching all consume it through adapters.
	circular := rules.NewCircularTradeChecker(db)
	riskRules := []*riskdomain.RuleProgram{
		{Name: "capability_match", Weight: 0.40, Expression: `hasCapability ? 100.0 : 0.0`},
		{Name: "baseline", Weight: 0.60, Expression: `80.0`},
	}
	riskBlockers := []*riskdomain.Blocker{}
	evaluator := riskdomain.NewEvaluator(riskRules, riskBlockers, nil, circular, dc.RiskLookbackDays)
	riskCommands := riskapp.NewCommandService(evaluator, riskRepo, publisher)
	riskAdapter := riskinfra.NewRiskAdapter(riskCommands)
	availRiskAdapter := riskinfra.NewAvailabilityRiskAdapter(riskCommands)
	bilateralRiskAdapter := riskinfra.NewBilateralRiskAdapter(riskCommands)

	// 6. C3 Matching engine — its queue/commands are needed before the
	// requirement/availability MatchingTrigger ports can be built.
	matchQueue := matchdomain.NewPriorityQueue(dc.MatchingQueueBuffer, func(t matchdomain.Task) {
		logging.Warn(context.Background(), "matching task dropped under backpressure", "subjectType", t.SubjectType, "subjectId", t.SubjectID)
	})
	reqQueries := reqapp.NewQueryService(reqRepo)
	availQueries := availapp.NewQueryService(availRepo)
	requirementLookup := matchinfra.NewRequirementAdapter(reqQueries)
	reservations := availapp.NewReservationService(availRepo, resRepo)
	availabilityLookup := matchinfra.NewAvailabilityAdapter(availQueries, reservations)
	mtCommands := mtapp.NewCommandService(tokenRepo, publisher)
	tokenIssuerAdapter := mtinfra.NewTokenIssuerAdapter(mtCommands)

	hub := rtapp.NewHub(nil, rtinfra.NewCapabilitySupervisorAuthorizer(), rtredis.NewBus(redisClient))
	tradeQueries := tradeapp.NewQueryService(tradeRepo)
	fanoutAdapter := rtinfra.NewFanoutAdapter(hub, tradeQueries)

	matchCommands := matchapp.NewCommandService(
		requirementLookup, availabilityLookup,
		bilateralRiskAdapter, tokenIssuerAdapter.Port(), fanoutAdapter.Matching(),
		nil, dedupStore, publisher,
		matchapp.Config{MaxRadiusKM: dc.MaxMatchRadiusKM},
	)
	dispatcher := matchapp.NewDispatcher(matchQueue, matchCommands)
	triggerAdapter := matchinfra.NewTriggerAdapter(matchCommands, matchQueue)

	// 7. Requirement / Availability, now that their MatchingTrigger and
	// RiskEvaluator ports exist.
	reqCommands := reqapp.NewCommandService(reqRepo, publisher, riskAdapter, triggerAdapter.RequirementPort())
	availCommands := availapp.NewCommandService(availRepo, publisher, availRiskAdapter, triggerAdapter.AvailabilityPort())

	// 8. C4 Match Token Store, C5 Negotiation, C6 Trade — each needs the
	// providing side's adapter before construction.
	negRepoQueries := negapp.NewQueryService(negRepo)
	tokenResolverAdapter := mtinfra.NewTokenResolverAdapter(mtCommands)
	aggregateLock := negredislock.NewAggregateLock(redisClient)
	aiFallback := aiadvisor.NewFallback()
	aiAdvisor := aiadvisor.NewBreakerWrapped(aiFallback, "negotiation-ai-advisor")

	branchLookupAdapter := partnerinfra.NewBranchLookupAdapter(branchRepo)
	negotiationReaderAdapter := neginfra.NewNegotiationReaderAdapter(negRepoQueries)
	contractRenderer := contractrender.NewLocalRenderer(dc.ContractDir)

	tradeCommands := tradeapp.NewCommandService(tradeRepo, publisher, negotiationReaderAdapter, branchLookupAdapter, contractRenderer, fanoutAdapter.Trade())
	tradeTriggerAdapter := tradeinfra.NewTradeTriggerAdapter(tradeCommands)

	negCommands := negapp.NewCommandService(negRepo, publisher, tokenResolverAdapter, aggregateLock, tradeTriggerAdapter.Port(), fanoutAdapter.Negotiation(), aiAdvisor)

	// 9. C7 Real-Time Fan-out's room participant checkers, now that every
	// providing context's QueryService/ReservationService exists. The Hub
	// was constructed earlier with a nil checker map so the Fanout adapter
	// could be built first; fill it in now.
	negParticipants := neginfra.NewParticipantCheckerAdapter(negRepoQueries)
	availParticipants := availinfra.NewParticipantCheckerAdapter(availQueries, reservations)
	reqParticipants := reqinfra.NewParticipantCheckerAdapter(reqQueries)
	hub.SetCheckers(map[rtdomain.RoomKind]rtapp.ParticipantChecker{
		rtdomain.RoomNegotiation:  negParticipants.Port(),
		rtdomain.RoomAvailability: availParticipants.Port(),
		rtdomain.RoomRequirement:  reqParticipants.Port(),
	})

	// 10. Transports
	reqHTTP := reqhttp.NewHandler(reqCommands, reqQueries)
	availHTTP := availhttp.NewHandler(availCommands, availQueries, reservations)
	negHTTP := neghttp.NewHandler(negCommands, negRepoQueries)
	mtHTTP := mthttp.NewHandler(mtCommands)
	tradeHTTP := tradehttp.NewHandler(tradeCommands, tradeQueries)
	eventQueries := eventlogapp.NewQueryService(eventRepo)
	eventHTTP := eventloghttp.NewHandler(eventQueries)
	wsHandler := rtws.NewHandler(hub, []byte(dc.JWTSecret))

	// 11. Background loops: the matching dispatcher worker pool (async
	// fallback for candidates not resolved synchronously), the negotiation
	// expiry sweeper (default 60s period), and the event log's archive
	// consumers — one per business topic, mirroring cmd/risk/main.go's
	// per-topic projection consumer loop.
	bgCtx, cancelBG := context.WithCancel(context.Background())
	dispatcher.Run(bgCtx, dc.MatchingWorkerCount)
	go runExpirySweeper(bgCtx, negCommands, time.Duration(dc.ExpirySweepIntervalS)*time.Second)

	eventCommands := eventlogapp.NewCommandService(eventRepo)
	deadLetterSink := eventlogapp.NewDeadLetterSink(eventRepo)
	archiveRetries := dc.EventArchiveRetries
	if archiveRetries <= 0 {
		archiveRetries = 3
	}
	archiveWorkers := dc.EventArchiveWorkers
	if archiveWorkers <= 0 {
		archiveWorkers = 2
	}
	archiveHandler := eventlogconsumer.NewArchiveHandler(eventCommands, deadLetterSink, archiveRetries, logger.Logger)
	for _, topic := range eventlogapp.ArchivedTopics {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		if consumerCfg.GroupID == "" {
			consumerCfg.GroupID = "eventlog-archiver-group"
		}
		archiveConsumer := kafka.NewConsumer(&consumerCfg, logger, m)
		archiveConsumer.Start(bgCtx, archiveWorkers, archiveHandler.Handle)
	}

	cleanup := func() {
		bootLog.Info("shutting down...")
		cancelBG()
		outboxProc.Stop()
		if producer != nil {
			producer.Close()
		}
		if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
			sqlDB.Close()
		}
	}

	return &AppContext{
		Config:           cfg,
		requirementHTTP:  reqHTTP,
		availabilityHTTP: availHTTP,
		negotiationHTTP:  negHTTP,
		matchtokenHTTP:   mtHTTP,
		tradeHTTP:        tradeHTTP,
		eventlogHTTP:     eventHTTP,
		realtimeWS:       wsHandler,
		dispatcher:       dispatcher,
		negCmds:          negCommands,
		Metrics:          m,
	}, cleanup, nil
}

// runExpirySweeper periodically calls CommandService.ExpireInactive so
// negotiations inactive past their expiry are swept automatically, logging
// the count whenever a pass expires at least one.
func runExpirySweeper(ctx context.Context, commands *negapp.CommandService, interval time.Duration) {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := commands.ExpireInactive(ctx)
			if err != nil {
				logging.Warn(ctx, "negotiation expiry sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logging.Warn(ctx, "negotiation expiry sweep expired negotiations", "count", n)
			}
		}
	}
}
