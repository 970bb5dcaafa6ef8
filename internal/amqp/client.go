// Package amqp publishes receipt change events and consumes queued scan
// jobs over RabbitMQ. The client is optional everywhere it is used: a nil
// client skips publishing instead of failing the request.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	exchangeName  string
	eventsQueue   string
	scanJobsQueue string
}

func NewClient(url, exchangeName, eventsQueue, scanJobsQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:          conn,
		channel:       channel,
		exchangeName:  exchangeName,
		eventsQueue:   eventsQueue,
		scanJobsQueue: scanJobsQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.eventsQueue, c.scanJobsQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// routing key matches the queue name on the direct exchange
		err = c.channel.QueueBind(queue, queue, c.exchangeName, false, nil)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// PublishReceiptEvent publishes a receipt created/deleted event.
func (c *Client) PublishReceiptEvent(ctx context.Context, id int64, event string) error {
	body, err := NewReceiptEventMessage(id, event).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.eventsQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published receipt event",
		"id", id,
		"event", event,
		"exchange", c.exchangeName,
		"queue", c.eventsQueue)
	return nil
}

// PublishScanJob queues an already-uploaded image URL for ingestion by the
// scan worker.
func (c *Client) PublishScanJob(ctx context.Context, documentURL string) error {
	body, err := NewScanJobMessage(documentURL).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.scanJobsQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published scan job",
		"document_url", documentURL,
		"queue", c.scanJobsQueue)
	return nil
}

// ConsumeScanJobs delivers queued scan jobs to handler until ctx is done.
// A handler error nacks with requeue; a malformed message is dropped.
func (c *Client) ConsumeScanJobs(ctx context.Context, handler func(*ScanJobMessage) error) error {
	msgs, err := c.channel.Consume(
		c.scanJobsQueue, // queue
		"",              // consumer
		false,           // auto-ack (we want manual ack)
		false,           // exclusive
		false,           // no-local
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming scan jobs", "queue", c.scanJobsQueue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping scan job consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := ScanJobMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal scan job", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle scan job",
					"error", err,
					"document_url", msg.DocumentURL)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Notifier adapts the client to the ingestion orchestrator's observer port.
// Publishing is best effort: a broker failure is logged, never propagated
// into the pipeline.
type Notifier struct {
	Client *Client
}

func (n *Notifier) ReceiptCreated(ctx context.Context, receiptID int64) {
	if n == nil || n.Client == nil {
		return
	}
	if err := n.Client.PublishReceiptEvent(ctx, receiptID, "created"); err != nil {
		slog.ErrorContext(ctx, "Failed to publish receipt created event",
			"receipt_id", receiptID, "error", err)
	}
}
