package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/freshtally/freshtally/internal/core/partition"
	"github.com/freshtally/freshtally/internal/ingestion"
)

const (
	exchangeType    = "topic"
	defaultLanes    = 8
	defaultPrefetch = 64
)

// Config configures the change consumer.
type Config struct {
	URL      string
	Exchange string
	Queue    string
	Lanes    int
	Prefetch int
}

// Recorder counts consumed messages. result is "ok", "failed", "rejected" or "requeued".
type Recorder interface {
	RecordMessage(routingKey, result string)
}

type noopRecorder struct{}

func (noopRecorder) RecordMessage(string, string) {}

// Consumer reads change events from a durable queue bound to a topic exchange.
// Messages for the same product are applied in arrival order on one lane;
// different products proceed in parallel across lanes.
type Consumer struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queue      string
	prefetch   int
	dispatcher ingestion.Dispatcher
	lanes      int
	recorder   Recorder
}

// NewConsumer dials the broker and declares the exchange, queue and bindings.
func NewConsumer(cfg Config, dispatcher ingestion.Dispatcher, recorder Recorder) (*Consumer, error) {
	if dispatcher == nil {
		panic("trigger: dispatcher must not be nil")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange,
		exchangeType,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", cfg.Exchange, err)
	}

	q, err := channel.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", cfg.Queue, err)
	}

	for _, routingKey := range RoutingKeys {
		if err := channel.QueueBind(q.Name, routingKey, cfg.Exchange, false, nil); err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("bind queue %q to %q: %w", q.Name, routingKey, err)
		}
	}

	slog.Info("[Trigger] Consumer declared",
		"exchange", cfg.Exchange,
		"queue", q.Name,
		"routing_keys", RoutingKeys)

	c := newConsumer(dispatcher, cfg.Lanes, recorder)
	c.conn = conn
	c.channel = channel
	c.queue = q.Name
	c.prefetch = cfg.Prefetch
	if c.prefetch <= 0 {
		c.prefetch = defaultPrefetch
	}
	return c, nil
}

func newConsumer(dispatcher ingestion.Dispatcher, lanes int, recorder Recorder) *Consumer {
	if lanes <= 0 {
		lanes = defaultLanes
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Consumer{dispatcher: dispatcher, lanes: lanes, recorder: recorder}
}

// Run consumes until ctx is cancelled or the broker closes the delivery channel.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag, generated
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming %q: %w", c.queue, err)
	}

	slog.Info("[Trigger] Consuming", "queue", c.queue, "lanes", c.lanes, "prefetch", c.prefetch)
	return c.pump(ctx, msgs)
}

// pump decodes deliveries and fans them out to lanes keyed by product.
func (c *Consumer) pump(ctx context.Context, msgs <-chan amqp.Delivery) error {
	lanes := make([]chan laneItem, c.lanes)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan laneItem, 1)
		wg.Add(1)
		go func(in <-chan laneItem) {
			defer wg.Done()
			for item := range in {
				c.process(ctx, item)
			}
		}(lanes[i])
	}
	defer func() {
		for _, lane := range lanes {
			close(lane)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("[Trigger] Consumer stopping", "queue", c.queue)
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed by broker")
			}

			ch, err := decode(msg.RoutingKey, msg.Body)
			if err != nil {
				slog.Warn("[Trigger] Rejecting undecodable message",
					"routing_key", msg.RoutingKey,
					"message_id", msg.MessageId,
					"error", err)
				if nackErr := msg.Nack(false, false); nackErr != nil {
					slog.Error("[Trigger] Nack failed", "error", nackErr)
				}
				c.recorder.RecordMessage(msg.RoutingKey, "rejected")
				continue
			}

			lane := lanes[partition.Lane(ch.productID, c.lanes)]
			select {
			case lane <- laneItem{delivery: msg, change: ch}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

type laneItem struct {
	delivery amqp.Delivery
	change   *change
}

// process applies one change. Processing failures are logged and acked; the
// broker never redelivers them. A change interrupted by shutdown was never
// applied, so it goes back to the queue instead.
func (c *Consumer) process(ctx context.Context, item laneItem) {
	if ctx.Err() != nil {
		c.requeue(item)
		return
	}

	report, err := item.change.apply(ctx, c.dispatcher)
	if err != nil && ctx.Err() != nil {
		slog.Info("[Trigger] Change interrupted by shutdown",
			"routing_key", item.change.routingKey,
			"product_id", item.change.productID,
			"error", err)
		c.requeue(item)
		return
	}

	result := "ok"
	if err != nil {
		result = "failed"
		slog.Error("[Trigger] Change processing failed",
			"routing_key", item.change.routingKey,
			"product_id", item.change.productID,
			"error", err)
	} else if report != nil {
		slog.Debug("[Trigger] Change processed",
			"routing_key", item.change.routingKey,
			"product_id", item.change.productID,
			"outcome", report.Outcome)
	}

	if ackErr := item.delivery.Ack(false); ackErr != nil {
		slog.Error("[Trigger] Ack failed", "routing_key", item.change.routingKey, "error", ackErr)
	}
	c.recorder.RecordMessage(item.change.routingKey, result)
}

func (c *Consumer) requeue(item laneItem) {
	if nackErr := item.delivery.Nack(false, true); nackErr != nil {
		slog.Error("[Trigger] Nack failed", "routing_key", item.change.routingKey, "error", nackErr)
	}
	c.recorder.RecordMessage(item.change.routingKey, "requeued")
}

// Close closes the channel and the connection.
func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
