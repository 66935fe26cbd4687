package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	"pollster/contexts/community-polls/voting-service/ports"
)

// APIKeyUseCase issues and revokes the bearer keys that guard the HTTP API.
type APIKeyUseCase struct {
	Keys    ports.APIKeyRepository
	Secrets ports.SecretGenerator
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc APIKeyUseCase) GenerateAPIKey(ctx context.Context) (entities.APIKey, error) {
	logger := application.ResolveLogger(uc.Logger)
	secret, err := uc.Secrets.NewSecret(ctx)
	if err != nil {
		return entities.APIKey{}, classify(err)
	}
	apiKeyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.APIKey{}, classify(err)
	}
	key := entities.APIKey{
		APIKeyID:  apiKeyID,
		Key:       secret,
		CreatedAt: uc.now(),
	}
	if err := uc.Keys.CreateAPIKey(ctx, key); err != nil {
		logger.Error("api key create failed",
			"event", "voting_api_key_create_failed",
			"module", application.Module,
			"layer", "application",
			"api_key_id", apiKeyID,
			"error", err.Error(),
		)
		return entities.APIKey{}, classify(err)
	}
	logger.Info("api key generated",
		"event", "voting_api_key_generated",
		"module", application.Module,
		"layer", "application",
		"api_key_id", key.APIKeyID,
	)
	return key, nil
}

func (uc APIKeyUseCase) ListAPIKeys(ctx context.Context) ([]entities.APIKey, error) {
	keys, err := uc.Keys.ListAPIKeys(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return keys, nil
}

func (uc APIKeyUseCase) DeleteAPIKey(ctx context.Context, apiKeyID string) error {
	logger := application.ResolveLogger(uc.Logger)
	apiKeyID = strings.TrimSpace(apiKeyID)
	if err := uc.Keys.DeleteAPIKey(ctx, apiKeyID); err != nil {
		return classify(err)
	}
	logger.Info("api key deleted",
		"event", "voting_api_key_deleted",
		"module", application.Module,
		"layer", "application",
		"api_key_id", apiKeyID,
	)
	return nil
}

func (uc APIKeyUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
