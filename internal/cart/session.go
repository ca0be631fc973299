package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// SessionStore keeps each session's cart snapshot in Redis. Every save
// refreshes the TTL so an active cart never expires mid-visit.
type SessionStore struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s SessionStore) key(sessionID string) string {
	return s.Prefix + "cart:session:" + sessionID
}

// Load returns the stored snapshot, or an empty cart when none exists.
func (s SessionStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if s.R == nil {
		return nil, errors.New("cart session store not configured")
	}
	raw, err := s.R.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart session: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart session: %w", err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

// Save writes c. An empty cart deletes the session key instead.
func (s SessionStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	if s.R == nil {
		return errors.New("cart session store not configured")
	}
	if c == nil || len(c.Items) == 0 {
		return s.Delete(ctx, sessionID)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart session: %w", err)
	}
	if err := s.R.Set(ctx, s.key(sessionID), raw, s.TTL).Err(); err != nil {
		return fmt.Errorf("save cart session: %w", err)
	}
	return nil
}

// Delete drops the session snapshot.
func (s SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.R.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete cart session: %w", err)
	}
	return nil
}
