// Package queue_publisher provides functions to publish journey events to
// RabbitMQ.  Errors are logged and returned so callers can ignore failures
// without interrupting the main request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/admission-portal/internal/config"
    q "github.com/iliyamo/admission-portal/internal/queue"
)

// Publisher is what the HTTP layer depends on.
type Publisher interface {
    Publish(ctx context.Context, ev q.JourneyEvent) error
}

// New returns a broker-backed publisher, or a no-op one when events are
// disabled.
func New(cfg config.QueueConfig) Publisher {
    if !cfg.Enabled {
        return Discard{}
    }
    return amqpPublisher{cfg: cfg}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, q.JourneyEvent) error { return nil }

type amqpPublisher struct {
    cfg config.QueueConfig
}

func (p amqpPublisher) Publish(ctx context.Context, ev q.JourneyEvent) error {
    return PublishJourneyEvent(ctx, p.cfg, ev)
}

// PublishJourneyEvent publishes ev to the journey queue.  It dials per
// call, never panics and marks messages persistent.  OccurredAt defaults to
// now.
func PublishJourneyEvent(ctx context.Context, cfg config.QueueConfig, ev q.JourneyEvent) error {
    if ev.OccurredAt == "" {
        ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
    }
    conn, err := amqp.Dial(cfg.URL)
    if err != nil {
        log.Printf("[rabbitmq] dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("[rabbitmq] channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so events survive broker restarts.
    if _, err := ch.QueueDeclare(
        cfg.Queue, // name
        true,      // durable
        false,     // autoDelete
        false,     // exclusive
        false,     // noWait
        nil,       // args
    ); err != nil {
        log.Printf("[rabbitmq] queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("[rabbitmq] marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",        // default exchange
        cfg.Queue, // routing key = queue name
        false,     // mandatory
        false,     // immediate
        pub,
    ); err != nil {
        log.Printf("[rabbitmq] publish failed: %v", err)
        return err
    }
    return nil
}
