package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// MemberEventMessage is the envelope published by the membership service
// when a member leaves or is removed from the community.
type MemberEventMessage struct {
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	TraceID   string    `json:"trace_id"`
}

// RegistrationRemover is the slice of the registration service the
// consumer needs.
type RegistrationRemover interface {
	RemoveUser(ctx context.Context, userID string) (int, error)
}

const (
	memberQueue      = "occurrence-service.member-events"
	memberRetryQueue = "occurrence-service.member-events.retry"
	memberDLX        = "occurrence.dlx"
	memberDLQ        = "occurrence-service.member-events.dlq"

	consumerMaxRetries = 3
)

// Consumer listens for member.removed events and drops the user's RSVPs.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	remover  RegistrationRemover
	exchange string
}

func NewConsumer(rabbitURL, exchange string, remover RegistrationRemover) (*Consumer, error) {
	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// 1. Main exchange (topic)
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// 2. DLX (fanout)
	if err := ch.ExchangeDeclare(memberDLX, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare dlx: %w", err)
	}

	// 3. DLQ bound to DLX
	if _, err := ch.QueueDeclare(memberDLQ, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare dlq: %w", err)
	}
	if err := ch.QueueBind(memberDLQ, "", memberDLX, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind dlq: %w", err)
	}

	// 4. Main queue with DLX configured
	mainQArgs := amqp.Table{
		"x-dead-letter-exchange": memberDLX, // Nack -> DLX -> DLQ
	}
	q, err := ch.QueueDeclare(memberQueue, true, false, false, false, mainQArgs)
	if err != nil {
		return nil, fmt.Errorf("failed to declare main queue: %w", err)
	}

	// 5. Retry queue with TTL routing back to the main queue
	retryQArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": memberQueue,
		"x-message-ttl":             5000, // 5 seconds
	}
	if _, err := ch.QueueDeclare(memberRetryQueue, true, false, false, false, retryQArgs); err != nil {
		return nil, fmt.Errorf("failed to declare retry queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "member.removed", exchange, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Consumer{
		conn:     conn,
		channel:  ch,
		queue:    q.Name,
		remover:  remover,
		exchange: exchange,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) {
	go c.consume(ctx)
	log.Info().
		Str("queue", c.queue).
		Str("exchange", c.exchange).
		Msg("member events consumer started")
}

func (c *Consumer) consume(ctx context.Context) {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to start consuming")
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("consumer shutting down")
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn().Msg("consumer channel closed")
				return
			}
			c.handleMessage(msg)
		}
	}
}

// applyMemberEvent is the pure handler logic, extracted so it can be
// tested without a broker.
func applyMemberEvent(ctx context.Context, remover RegistrationRemover, routingKey string, body []byte) error {
	var m MemberEventMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return fmt.Errorf("unmarshal member event: %w", err)
	}
	if m.UserID == "" {
		return fmt.Errorf("member event missing user_id")
	}

	switch routingKey {
	case "member.removed":
		n, err := remover.RemoveUser(ctx, m.UserID)
		if err != nil {
			return err
		}
		log.Info().
			Str("user_id", m.UserID).
			Str("trace_id", m.TraceID).
			Int("removed", n).
			Msg("member registrations removed")
		return nil
	default:
		log.Warn().Str("routing_key", routingKey).Msg("unknown routing key")
		return nil
	}
}

func (c *Consumer) handleMessage(msg amqp.Delivery) {
	routingKey := msg.RoutingKey
	if val, ok := msg.Headers["x-original-routing-key"].(string); ok {
		routingKey = val
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := applyMemberEvent(ctx, c.remover, routingKey, msg.Body)
	if err == nil {
		msg.Ack(false)
		return
	}

	retryCount := 0
	if val, ok := msg.Headers["x-retry-count"].(int32); ok {
		retryCount = int(val)
	}

	if retryCount < consumerMaxRetries {
		log.Warn().
			Err(err).
			Int("retry_count", retryCount).
			Msg("processing failed, scheduling retry")

		headers := make(amqp.Table)
		for k, v := range msg.Headers {
			headers[k] = v
		}
		headers["x-retry-count"] = int32(retryCount + 1)
		headers["x-original-routing-key"] = routingKey

		pubErr := c.channel.Publish(
			"",               // default exchange
			memberRetryQueue, // routing key = retry queue name
			false,
			false,
			amqp.Publishing{
				ContentType: msg.ContentType,
				Body:        msg.Body,
				Headers:     headers,
				MessageId:   msg.MessageId,
			},
		)
		if pubErr != nil {
			log.Error().Err(pubErr).Msg("failed to publish to retry queue")
			msg.Nack(false, false) // failed to retry -> DLQ
		} else {
			msg.Ack(false) // handled via retry
		}
		return
	}

	log.Error().
		Err(err).
		Msg("max retries reached, sending to DLQ")
	msg.Nack(false, false) // requeue=false + DLX configured = DLQ
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
