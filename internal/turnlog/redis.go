package turnlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"hservice/internal/redis"
)

const (
	IntentsKey       = "hservice:intents"
	TurnsChannel     = "hservice:turns"
	ticketKeyPrefix  = "hservice:ticket:"
	DefaultTicketTTL = 24 * time.Hour
)

// RedisRecorder counts intents in a redis hash, keeps the last turn of each
// ticket under a TTL and publishes every turn for live consumers.
type RedisRecorder struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRecorder(client *redis.Client, ticketTTL time.Duration) *RedisRecorder {
	if ticketTTL <= 0 {
		ticketTTL = DefaultTicketTTL
	}
	return &RedisRecorder{client: client, ttl: ticketTTL}
}

func TicketKey(ticketID string) string {
	return ticketKeyPrefix + ticketID
}

func (r *RedisRecorder) Record(ctx context.Context, turn Turn) error {
	if err := r.client.HIncrBy(ctx, IntentsKey, intentKey(turn.Intent), 1); err != nil {
		return fmt.Errorf("count intent: %w", err)
	}
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	if turn.TicketID != "" {
		if err := r.client.Set(ctx, TicketKey(turn.TicketID), payload, r.ttl); err != nil {
			return fmt.Errorf("store ticket state: %w", err)
		}
	}
	if err := r.client.Publish(ctx, TurnsChannel, payload); err != nil {
		return fmt.Errorf("publish turn: %w", err)
	}
	return nil
}

func (r *RedisRecorder) IntentCounts(ctx context.Context) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, IntentsKey)
	if err != nil {
		return nil, fmt.Errorf("load intent counts: %w", err)
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("intent %s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

// LastTurn loads the stored state of a ticket.
func (r *RedisRecorder) LastTurn(ctx context.Context, ticketID string) (*Turn, error) {
	raw, err := r.client.Get(ctx, TicketKey(ticketID))
	if errors.Is(err, redis.ErrCacheMiss) {
		return nil, ErrUnknownTicket
	}
	if err != nil {
		return nil, err
	}
	var turn Turn
	if err := json.Unmarshal([]byte(raw), &turn); err != nil {
		return nil, fmt.Errorf("decode ticket state: %w", err)
	}
	return &turn, nil
}
