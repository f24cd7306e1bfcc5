package services

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	EventRequestCreated = "request.created"
	EventRequestUpdated = "request.updated"
	EventEscalationDue  = "escalation.due"
)

// StaffEvent is what waiter clients subscribe to for live refresh.
type StaffEvent struct {
	Type        string    `json:"event_type"`
	RequestID   string    `json:"request_id"`
	LocationID  uint      `json:"location_id"`
	TableNumber string    `json:"table_number,omitempty"`
	Status      string    `json:"status,omitempty"`
	Action      string    `json:"action,omitempty"`
	StaffID     *uint     `json:"staff_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EventBus publishes workflow events to a Redis channel. It is optional:
// when REDIS_ADDR is unset the bus is disabled and Publish is a no-op, and
// publish failures never fail the action that produced the event.
type EventBus struct {
	log     *zap.SugaredLogger
	rdb     *goredis.Client
	channel string
}

func NewEventBus(log *zap.SugaredLogger) *EventBus {
	bus := &EventBus{log: log, channel: "staff-events"}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		log.Info("REDIS_ADDR not set, realtime events disabled")
		return bus
	}
	if ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL")); ch != "" {
		bus.channel = ch
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnw("redis unreachable, realtime events disabled", "addr", addr, "error", err)
		_ = rdb.Close()
		return bus
	}

	bus.rdb = rdb
	log.Infow("realtime event bus connected", "addr", addr, "channel", bus.channel)
	return bus
}

func (b *EventBus) Enabled() bool {
	return b != nil && b.rdb != nil
}

func (b *EventBus) Publish(evt StaffEvent) {
	if !b.Enabled() {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		b.log.Warnw("event marshal failed", "type", evt.Type, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.log.Warnw("event publish failed", "type", evt.Type, "request_id", evt.RequestID, "error", err)
	}
}

func (b *EventBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
