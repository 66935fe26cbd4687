package queries

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"
)

// APIKeyAuthenticator validates bearer keys against the key store.
type APIKeyAuthenticator struct {
	Keys   ports.APIKeyRepository
	Logger *slog.Logger
}

func (a APIKeyAuthenticator) Authenticate(ctx context.Context, key string) (entities.APIKey, error) {
	logger := application.ResolveLogger(a.Logger)
	key = strings.TrimSpace(key)
	if key == "" {
		return entities.APIKey{}, domainerrors.ErrUnauthorized
	}
	found, err := a.Keys.FindAPIKey(ctx, key)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn("api key rejected",
				"event", "voting_api_key_rejected",
				"module", application.Module,
				"layer", "application",
			)
			return entities.APIKey{}, domainerrors.ErrUnauthorized
		}
		logger.Error("api key lookup failed",
			"event", "voting_api_key_lookup_failed",
			"module", application.Module,
			"layer", "application",
			"error", err.Error(),
		)
		return entities.APIKey{}, domainerrors.Storage(err)
	}
	return found, nil
}
