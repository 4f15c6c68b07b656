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
)

// StartEventConsumer connects to RabbitMQ, declares the storefront queues
// (durable) and consumes both, appending one human-readable line per
// event to logs/storefront.log. It runs a reconnect loop with capped
// backoff and keeps going through processing errors, rejecting the
// offending message without requeueing so a poison message cannot spin
// the consumer.
func StartEventConsumer(url string) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("event-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("event-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("event-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{BookingConfirmedQueue, SessionExpiredQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	bookings, err := ch.Consume(BookingConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", BookingConfirmedQueue, err)
	}
	expiries, err := ch.Consume(SessionExpiredQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", SessionExpiredQueue, err)
	}

	for {
		var (
			d    amqp.Delivery
			ok   bool
			kind string
		)
		select {
		case d, ok = <-bookings:
			kind = BookingConfirmedQueue
		case d, ok = <-expiries:
			kind = SessionExpiredQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := handleMessage(kind, d.Body); err != nil {
			log.Printf("event-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

func handleMessage(queueName string, body []byte) error {
	line, err := formatLine(queueName, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "storefront.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(queueName string, body []byte) (string, error) {
	switch queueName {
	case BookingConfirmedQueue:
		var ev BookingConfirmedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal booking event: %w", err)
		}
		return fmt.Sprintf("[%s] Booking confirmed | booking_id=%s | user_id=%d | concert_id=%d | total=%d cents | seats=%s\n",
			ev.ConfirmedAt, ev.BookingID, ev.UserID, ev.ConcertID, ev.TotalCents, seatList(ev.SeatLabels)), nil
	case SessionExpiredQueue:
		var ev SessionExpiredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal expiry event: %w", err)
		}
		return fmt.Sprintf("[%s] Session expired | session_id=%s | user_id=%d | concert_id=%d | seats=%s\n",
			ev.ExpiredAt, ev.SessionID, ev.UserID, ev.ConcertID, seatList(ev.SeatIDs)), nil
	default:
		return "", fmt.Errorf("unknown queue %q", queueName)
	}
}

func seatList(labels []string) string {
	if len(labels) == 0 {
		return "[]"
	}
	return fmt.Sprintf("[%s]", strings.Join(labels, ","))
}
