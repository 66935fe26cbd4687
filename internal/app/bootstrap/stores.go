package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pollster/contexts/community-polls/voting-service/adapters/memory"
	postgresadapter "pollster/contexts/community-polls/voting-service/adapters/postgres"
	redisadapter "pollster/contexts/community-polls/voting-service/adapters/redis"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"
	"pollster/internal/platform/config"
	"pollster/internal/platform/db"
)

// recordStore is everything besides the vote ledger: questions, answer
// options, API keys, the outbox and consumer dedup.
type recordStore interface {
	ports.QuestionRepository
	ports.AnswerOptionRepository
	ports.APIKeyRepository
	ports.OutboxWriter
	ports.OutboxRepository
	ports.EventDedupStore
}

type stores struct {
	votes   ports.VoteStore
	records recordStore
	clock   ports.Clock
	ids     ports.IDGenerator
	secrets ports.SecretGenerator
	// inMemory is set when the process owns its whole state; the outbox can
	// then only be drained in-process.
	inMemory bool
	closers  []func() error
}

func openStores(ctx context.Context, cfg config.Config, uniqueVotes bool, logger *slog.Logger) (*stores, error) {
	if cfg.VoteStore == config.VoteStoreMemory {
		store := memory.NewStore(memory.Seed{}, uniqueVotes)
		return &stores{
			votes:    store,
			records:  store,
			clock:    store,
			ids:      store,
			secrets:  store,
			inMemory: true,
		}, nil
	}

	s := &stores{
		clock:   postgresadapter.SystemClock{},
		ids:     postgresadapter.UUIDGenerator{},
		secrets: postgresadapter.RandomSecretGenerator{},
	}
	handle, err := openRelational(cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, handle.Close)

	repo := postgresadapter.NewRepository(handle.DB, logger)
	if err := repo.Migrate(ctx, uniqueVotes); err != nil {
		_ = s.Close()
		return nil, err
	}
	s.votes = repo
	s.records = repo

	if cfg.VoteStore == config.VoteStoreRedis {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			_ = s.Close()
			return nil, errors.New("REDIS_URL is required for the redis vote store")
		}
		client, err := redisadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		s.votes = redisadapter.NewVoteStore(client, uniqueVotes, logger)
	}

	logger.Info("voting stores opened",
		"event", "bootstrap_stores_opened",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"vote_store", cfg.VoteStore,
	)
	return s, nil
}

// openRelational picks postgres for the postgres store and whenever a DSN is
// configured; otherwise sqlite at SQLitePath.
func openRelational(cfg config.Config) (*db.Postgres, error) {
	switch {
	case cfg.VoteStore == config.VoteStorePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("POSTGRES_DSN is required for the postgres vote store")
		}
		return db.Connect(cfg.PostgresDSN)
	case cfg.VoteStore == config.VoteStoreRedis && strings.TrimSpace(cfg.PostgresDSN) != "":
		return db.Connect(cfg.PostgresDSN)
	default:
		return db.OpenSQLite(cfg.SQLitePath)
	}
}

func (s *stores) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// ensureAPIKey stores key unless it already exists, so a fresh deployment
// has one credential to reach the admin routes with.
func (s *stores) ensureAPIKey(ctx context.Context, key string, logger *slog.Logger) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	_, err := s.records.FindAPIKey(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return fmt.Errorf("look up bootstrap api key: %w", err)
	}
	id, err := s.ids.NewID(ctx)
	if err != nil {
		return fmt.Errorf("generate bootstrap api key id: %w", err)
	}
	if err := s.records.CreateAPIKey(ctx, entities.APIKey{
		APIKeyID:  id,
		Key:       key,
		CreatedAt: s.clock.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("store bootstrap api key: %w", err)
	}
	logger.Info("bootstrap api key stored",
		"event", "bootstrap_api_key_stored",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"api_key_id", id,
	)
	return nil
}
