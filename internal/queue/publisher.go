package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/rentora/property-portal/internal/model"
)

const (
	auditQueueName        = "audit.role_switched"
	notificationQueueName = "notification.created"
)

// Publisher sends domain events to RabbitMQ. Every publish is best
// effort: errors are logged and returned so callers can ignore them
// without interrupting the main request flow. An empty URL disables
// publishing entirely.
type Publisher struct {
	url string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// RoleSwitched publishes a RoleSwitchedEvent, fire and forget.
func (p *Publisher) RoleSwitched(ctx context.Context, userID string, from, to model.Role) {
	ev := RoleSwitchedEvent{
		UserID:     userID,
		FromRole:   string(from),
		ToRole:     string(to),
		SwitchedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.publish(ctx, auditQueueName, ev); err != nil {
		logrus.WithError(err).Warn("audit event publish failed")
	}
}

// NotificationCreated publishes a NotificationCreatedEvent, fire and
// forget.
func (p *Publisher) NotificationCreated(ctx context.Context, n *model.Notification) {
	ev := NotificationCreatedEvent{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           string(n.Type),
		Title:          n.Title,
		CreatedAt:      n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := p.publish(ctx, notificationQueueName, ev); err != nil {
		logrus.WithError(err).Warn("notification event publish failed")
	}
}

// publish opens a short-lived connection, declares the durable queue
// (idempotent) and sends one persistent message on the default exchange.
func (p *Publisher) publish(ctx context.Context, queueName string, event any) error {
	if p == nil || p.url == "" {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
