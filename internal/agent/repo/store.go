package repo

import (
	"context"
	"time"
)

// Store is the key-value backend for state blobs. Load reports ok=false
// for an absent key; ttl <= 0 means the key never expires.
type Store interface {
	Load(ctx context.Context, key string) (blob []byte, ok bool, err error)
	Save(ctx context.Context, key string, blob []byte, ttl time.Duration) error
}

func conversationKey(conversationID string) string {
	return "conversation:" + conversationID + ":state"
}

func profileKey(userID string) string {
	return "user:" + userID + ":profile"
}
