package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutorium-be/internal/pkg/clock"
	"tutorium-be/internal/pkg/logger"
	"tutorium-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// NotificationsTopic is the in-process topic between the outbox
// dispatcher and the delivery consumer.
const NotificationsTopic = "notifications"

const dispatchBatchSize = 50

// outboxEnvelope is the wire form of an outbox row on the bus.
type outboxEnvelope struct {
	Id       string                 `json:"id"`
	UserId   string                 `json:"user_id"`
	TypeCode string                 `json:"type_code"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Payload  map[string]interface{} `json:"payload"`
}

type IOutboxDispatcher interface {
	// DispatchOnce drains one batch of pending rows onto the bus.
	DispatchOnce(ctx context.Context) (int, error)
	Start()
	Stop()
}

// outboxDispatcher polls the notification_outbox table and relays rows to
// the bus. Rows stay pending until the publish succeeds, so a bus outage
// only delays delivery.
type outboxDispatcher struct {
	factory   unitofwork.RepositoryFactory
	publisher message.Publisher
	clk       clock.Clock
	log       logger.ILogger
	interval  time.Duration
	stopChan  chan struct{}
}

func NewOutboxDispatcher(factory unitofwork.RepositoryFactory, publisher message.Publisher, clk clock.Clock, log logger.ILogger, interval time.Duration) IOutboxDispatcher {
	return &outboxDispatcher{
		factory:   factory,
		publisher: publisher,
		clk:       clk,
		log:       log,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

func (d *outboxDispatcher) DispatchOnce(ctx context.Context) (int, error) {
	uow := d.factory.NewUnitOfWork(ctx)
	pending, err := uow.OutboxRepository().FindPending(ctx, dispatchBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read pending outbox rows: %w", err)
	}

	dispatched := 0
	for _, row := range pending {
		envelope := outboxEnvelope{
			Id:       row.Id.String(),
			UserId:   row.UserId.String(),
			TypeCode: row.TypeCode,
			Title:    row.Title,
			Message:  row.Message,
			Payload:  row.Payload,
		}
		body, err := json.Marshal(envelope)
		if err != nil {
			return dispatched, fmt.Errorf("failed to marshal outbox row %s: %w", row.Id, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), body)
		msg.Metadata.Set("type_code", row.TypeCode)
		if err := d.publisher.Publish(NotificationsTopic, msg); err != nil {
			// Leave the row pending; the next tick retries.
			d.log.Warn("outbox", "publish failed, row stays pending", map[string]interface{}{
				"outbox_id": row.Id.String(),
				"error":     err.Error(),
			})
			return dispatched, nil
		}

		if err := uow.OutboxRepository().MarkDispatched(ctx, row.Id, d.clk.Now()); err != nil {
			return dispatched, fmt.Errorf("failed to mark outbox row dispatched: %w", err)
		}
		dispatched++
	}
	return dispatched, nil
}

func (d *outboxDispatcher) Start() {
	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if _, err := d.DispatchOnce(ctx); err != nil {
					d.log.Error("outbox", "dispatch pass failed", map[string]interface{}{"error": err.Error()})
				}
				cancel()
			case <-d.stopChan:
				return
			}
		}
	}()
}

func (d *outboxDispatcher) Stop() {
	close(d.stopChan)
}
