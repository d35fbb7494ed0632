package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry describes an online charge box.
type Entry struct {
	ChargeBoxID string    `json:"charge_box_id"`
	Protocol    string    `json:"protocol"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
}

// Store caches charge box presence in redis so the dispatcher can check
// connectivity without touching the websocket layer.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed presence store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(chargeBoxID string) string {
	return fmt.Sprintf("chargepoints:online:%s", chargeBoxID)
}

// MarkOnline records a charge box as connected.
func (s *Store) MarkOnline(ctx context.Context, chargeBoxID, protocol string) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC()
	entry := Entry{
		ChargeBoxID: chargeBoxID,
		Protocol:    protocol,
		ConnectedAt: now,
		LastSeen:    now,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(chargeBoxID), data, s.ttl).Err()
}

// Touch refreshes last-seen for a connected charge box.
func (s *Store) Touch(ctx context.Context, chargeBoxID string) error {
	if s == nil {
		return nil
	}
	result, err := s.client.Get(ctx, s.key(chargeBoxID)).Result()
	if err != nil {
		return err
	}
	var entry Entry
	if err := json.Unmarshal([]byte(result), &entry); err != nil {
		return err
	}
	entry.LastSeen = time.Now().UTC()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(chargeBoxID), data, s.ttl).Err()
}

// MarkOffline removes the presence entry.
func (s *Store) MarkOffline(ctx context.Context, chargeBoxID string) error {
	if s == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(chargeBoxID)).Err()
}

// IsOnline reports whether a presence entry exists for the charge box.
func (s *Store) IsOnline(ctx context.Context, chargeBoxID string) (bool, error) {
	if s == nil {
		return true, nil
	}
	_, err := s.client.Get(ctx, s.key(chargeBoxID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
