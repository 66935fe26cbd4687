package entities

import "time"

type APIKey struct {
	APIKeyID  string
	Key       string
	CreatedAt time.Time
}
