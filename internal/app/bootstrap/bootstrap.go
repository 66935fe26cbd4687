package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	votingservice "pollster/contexts/community-polls/voting-service"
	"pollster/contexts/community-polls/voting-service/adapters/metrics"
	"pollster/contexts/community-polls/voting-service/application/workers"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	"pollster/contexts/community-polls/voting-service/ports"
	"pollster/internal/platform/config"
	"pollster/internal/platform/httpserver"
	"pollster/internal/platform/messaging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const (
	metricsNamespace   = "pollster"
	relayPollInterval  = 2 * time.Second
	relayBatchSize     = 100
	auditDedupTTL      = 7 * 24 * time.Hour
	auditConsumerGroup = "voting-service-audit-cg"
	shutdownTimeout    = 10 * time.Second
)

type APIApp struct {
	server *httpserver.Server
	stores *stores
	// pipeline drains the outbox in-process when the API owns all state.
	pipeline *eventPipeline
	logger   *slog.Logger
}

type WorkerApp struct {
	stores   *stores
	pipeline *eventPipeline
	logger   *slog.Logger
}

// eventPipeline relays outbox rows to a publisher and runs the vote audit
// consumer on the matching subscriber.
type eventPipeline struct {
	relay    workers.OutboxRelay
	audit    workers.VoteAuditConsumer
	closer   func() error
	interval time.Duration
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	return buildAPI(context.Background(), cfg, logger)
}

func buildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	settings := settingsFromConfig(cfg)
	st, err := openStores(ctx, cfg, settings.DuplicatePolicy == entities.DuplicatePolicySingle, logger)
	if err != nil {
		return nil, err
	}
	if err := st.ensureAPIKey(ctx, cfg.BootstrapAPIKey, logger); err != nil {
		_ = st.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps := votingservice.Dependencies{
		Votes:         st.votes,
		Questions:     st.records,
		AnswerOptions: st.records,
		APIKeys:       st.records,
		Observers:     []ports.VoteNotifier{metrics.NewObserver(registry, metricsNamespace)},
		Clock:         st.clock,
		IDGen:         st.ids,
		Secrets:       st.secrets,
		Settings:      settings,
		Logger:        logger,
	}
	if cfg.EnableVotingOutboxRelay {
		deps.Outbox = st.records
	}
	module := votingservice.NewModule(deps)

	app := &APIApp{
		server: httpserver.New(
			module,
			httpserver.NewVoterTokenVerifier(cfg.VoterTokenSecret),
			registry,
			logger,
			normalizeAddr(cfg.HTTPPort),
		),
		stores: st,
		logger: logger,
	}
	if st.inMemory && cfg.EnableVotingOutboxRelay {
		pipeline, err := buildPipeline(cfg, st, logger)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		app.pipeline = pipeline
	}
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	return buildWorker(context.Background(), cfg, logger)
}

func buildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if cfg.VoteStore == config.VoteStoreMemory {
		return nil, errors.New("worker needs a shared vote store; set VOTE_STORE or POSTGRES_DSN")
	}
	if !cfg.EnableVotingOutboxRelay {
		return nil, errors.New("voting outbox relay is disabled")
	}
	settings := settingsFromConfig(cfg)
	st, err := openStores(ctx, cfg, settings.DuplicatePolicy == entities.DuplicatePolicySingle, logger)
	if err != nil {
		return nil, err
	}
	pipeline, err := buildPipeline(cfg, st, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &WorkerApp{
		stores:   st,
		pipeline: pipeline,
		logger:   logger,
	}, nil
}

// buildPipeline publishes to kafka when brokers are configured and to the
// in-process bus otherwise.
func buildPipeline(cfg config.Config, st *stores, logger *slog.Logger) (*eventPipeline, error) {
	var (
		publisher  ports.EventPublisher
		subscriber ports.EventSubscriber
		closer     func() error
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := messaging.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
		if err != nil {
			return nil, err
		}
		publisher, subscriber, closer = kafka, kafka, kafka.Close
	} else {
		bus := messaging.NewBus(logger)
		publisher, subscriber = bus, bus
	}

	return &eventPipeline{
		relay: workers.OutboxRelay{
			Outbox:    st.records,
			Publisher: publisher,
			Clock:     st.clock,
			BatchSize: relayBatchSize,
			Logger:    logger,
		},
		audit: workers.VoteAuditConsumer{
			Subscriber:    subscriber,
			Dedup:         st.records,
			Clock:         st.clock,
			ConsumerGroup: auditConsumerGroup,
			DedupTTL:      auditDedupTTL,
			Logger:        logger,
		},
		closer:   closer,
		interval: relayPollInterval,
		logger:   logger,
	}, nil
}

func settingsFromConfig(cfg config.Config) entities.Settings {
	return entities.Settings{
		VotingEnabled:                 cfg.EnableVoting,
		ShowResults:                   cfg.ShowResults,
		AllowAnonymous:                cfg.AllowAnonymousVoting,
		SingleAnswerOptionPerQuestion: cfg.SingleAnswerOptionPerQuestion,
		DuplicatePolicy:               entities.ParseDuplicatePolicy(cfg.DuplicateVotePolicy),
		GroupingMode:                  entities.ParseGroupingMode(cfg.ResultsGrouping),
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"in_process_relay", a.pipeline != nil,
	)
	if a.pipeline != nil {
		go func() {
			if err := a.pipeline.run(ctx); err != nil {
				a.logger.Error("in-process event pipeline stopped",
					"event", "bootstrap_pipeline_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (a *APIApp) Close() error {
	var errs []error
	if a.pipeline != nil {
		errs = append(errs, a.pipeline.close())
	}
	errs = append(errs, a.stores.Close())
	return errors.Join(errs...)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pipeline.interval.String(),
	)
	return w.pipeline.run(ctx)
}

func (w *WorkerApp) Close() error {
	return errors.Join(w.pipeline.close(), w.stores.Close())
}

// run subscribes the audit consumer, then relays the outbox every interval.
// A failed relay cycle leaves its rows pending and is retried on the next
// tick.
func (p *eventPipeline) run(ctx context.Context) error {
	if err := p.audit.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if _, err := p.relay.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_relay_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *eventPipeline) close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer()
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
