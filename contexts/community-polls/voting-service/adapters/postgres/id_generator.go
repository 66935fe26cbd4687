package postgresadapter

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// UUIDGenerator issues ids for questions, answer options, votes, and events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// RandomSecretGenerator produces API keys as 64 hex chars from 32 random bytes.
type RandomSecretGenerator struct{}

func (RandomSecretGenerator) NewSecret(_ context.Context) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
