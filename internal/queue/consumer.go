// Package queue contains the background consumer that listens to the journey
// event queue and writes one line per event to <log dir>/journey.log.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/admission-portal/internal/config"
)

// JourneyLogName is the file the consumer appends to.
const JourneyLogName = "journey.log"

// StartJourneyConsumer connects to RabbitMQ, declares the durable journey
// queue and consumes it forever.  Broker failures are retried with backoff;
// a message that cannot be handled is rejected without requeue so the loop
// keeps going.
func StartJourneyConsumer(cfg config.QueueConfig) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.Printf("[journey-consumer] failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        if err := consumeLoop(conn, cfg); err != nil {
            log.Printf("[journey-consumer] consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
        }
        _ = conn.Close()
    }
}

func consumeLoop(conn *amqp.Connection, cfg config.QueueConfig) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("[journey-consumer] set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(cfg.LogDir, d.Body); err != nil {
            log.Printf("[journey-consumer] handle message failed: %v", err)
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(dir string, body []byte) error {
    var ev JourneyEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, JourneyLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatLine renders ev as a single human-friendly line.
func formatLine(ev JourneyEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | session=%s | subcategory_id=%d", ev.OccurredAt, ev.Type, ev.SessionID, ev.SubcategoryID)
    if ev.Username != "" {
        fmt.Fprintf(&b, " | user=%q", ev.Username)
    }
    if ev.ApplicationID != 0 {
        fmt.Fprintf(&b, " | application_id=%d", ev.ApplicationID)
    }
    if ev.ApplicantNumber != "" {
        fmt.Fprintf(&b, " | applicant_number=%s", ev.ApplicantNumber)
    }
    if ev.Method != "" {
        fmt.Fprintf(&b, " | method=%s", ev.Method)
    }
    if ev.Provider != "" {
        fmt.Fprintf(&b, " | provider=%s", ev.Provider)
    }
    b.WriteByte('\n')
    return b.String()
}
