package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutorium-be/internal/entity"
	"tutorium-be/internal/pkg/clock"
	"tutorium-be/internal/pkg/logger"
	"tutorium-be/internal/pkg/mailer"
	"tutorium-be/internal/repository/specification"
	"tutorium-be/internal/repository/unitofwork"
	"tutorium-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const deliveryMaxAttempts = 5

// EventPublisher is the outward-facing event bus (NATS in production).
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type INotificationConsumer interface {
	// Start subscribes to the notifications topic and delivers until the
	// context is cancelled.
	Start(ctx context.Context) error
}

// notificationConsumer is the delivery end of the outbox pipeline: it fans
// each notification out to the NATS bus and, for the types students expect
// in their inbox, to email. Delivery failures never reach the domain
// transaction; they only bump the row's attempt counter.
type notificationConsumer struct {
	factory    unitofwork.RepositoryFactory
	subscriber message.Subscriber
	bus        EventPublisher
	email      mailer.IEmailService
	clk        clock.Clock
	log        logger.ILogger
}

func NewNotificationConsumer(factory unitofwork.RepositoryFactory, subscriber message.Subscriber, bus EventPublisher, email mailer.IEmailService, clk clock.Clock, log logger.ILogger) INotificationConsumer {
	return &notificationConsumer{
		factory:    factory,
		subscriber: subscriber,
		bus:        bus,
		email:      email,
		clk:        clk,
		log:        log,
	}
}

func (c *notificationConsumer) Start(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, NotificationsTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", NotificationsTopic, err)
	}

	go func() {
		for msg := range messages {
			c.handle(ctx, msg)
			// The outbox row carries the retry state; redelivery happens
			// through the dispatcher, not through the bus.
			msg.Ack()
		}
	}()
	return nil
}

func (c *notificationConsumer) handle(ctx context.Context, msg *message.Message) {
	var envelope outboxEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		c.log.Error("consumer", "malformed notification payload", map[string]interface{}{"error": err.Error()})
		return
	}
	outboxId, err := uuid.Parse(envelope.Id)
	if err != nil {
		c.log.Error("consumer", "malformed outbox id", map[string]interface{}{"id": envelope.Id})
		return
	}

	uow := c.factory.NewUnitOfWork(ctx)
	if err := c.deliver(ctx, uow, &envelope); err != nil {
		c.log.Warn("consumer", "delivery failed", map[string]interface{}{
			"outbox_id": envelope.Id,
			"type":      envelope.TypeCode,
			"error":     err.Error(),
		})
		if err := uow.OutboxRepository().MarkFailed(ctx, outboxId, deliveryMaxAttempts); err != nil {
			c.log.Error("consumer", "failed to record delivery failure", map[string]interface{}{"outbox_id": envelope.Id, "error": err.Error()})
		}
		return
	}

	if err := uow.OutboxRepository().MarkDelivered(ctx, outboxId, c.clk.Now()); err != nil {
		c.log.Error("consumer", "failed to mark delivered", map[string]interface{}{"outbox_id": envelope.Id, "error": err.Error()})
	}
}

func (c *notificationConsumer) deliver(ctx context.Context, uow unitofwork.UnitOfWork, envelope *outboxEnvelope) error {
	data := map[string]interface{}{
		"user_id": envelope.UserId,
		"title":   envelope.Title,
		"message": envelope.Message,
	}
	for k, v := range envelope.Payload {
		data[k] = v
	}
	if c.bus != nil {
		err := c.bus.Publish(ctx, events.BaseEvent{
			Type:       envelope.TypeCode,
			Data:       data,
			OccurredAt: c.clk.Now(),
		})
		if err != nil {
			return err
		}
	}

	return c.sendEmail(ctx, uow, envelope)
}

// sendEmail covers the notification types students expect in their mail.
// The rest are bus-only (dashboards, push gateway).
func (c *notificationConsumer) sendEmail(ctx context.Context, uow unitofwork.UnitOfWork, envelope *outboxEnvelope) error {
	switch envelope.TypeCode {
	case entity.NotifCancellationApproved, entity.NotifCancellationRejected,
		entity.NotifMakeupExpiryWarning, entity.NotifMakeupExpired:
	default:
		return nil
	}

	userId, err := uuid.Parse(envelope.UserId)
	if err != nil {
		return fmt.Errorf("malformed user id %q: %w", envelope.UserId, err)
	}
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if user == nil {
		c.log.Warn("consumer", "recipient not in directory, skipping email", map[string]interface{}{"user_id": envelope.UserId})
		return nil
	}

	switch envelope.TypeCode {
	case entity.NotifCancellationApproved:
		return c.email.SendReviewDecision(user.Email, user.FullName, payloadString(envelope.Payload, "expires_at"), "approved", envelope.Message)
	case entity.NotifCancellationRejected:
		return c.email.SendReviewDecision(user.Email, user.FullName, "", "rejected", envelope.Message)
	case entity.NotifMakeupExpiryWarning:
		expiresAt, _ := time.Parse(time.RFC3339, payloadString(envelope.Payload, "expires_at"))
		daysLeft := payloadInt(envelope.Payload, "days_left")
		return c.email.SendExpiryWarning(user.Email, user.FullName, expiresAt, daysLeft)
	case entity.NotifMakeupExpired:
		return c.email.SendCreditExpired(user.Email, user.FullName)
	}
	return nil
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadInt(payload map[string]interface{}, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
