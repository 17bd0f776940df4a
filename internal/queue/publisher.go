package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes booking events to RabbitMQ.  Each call dials the
// broker, declares the queue and publishes a persistent message; failures
// are logged and returned so callers can ignore them without interrupting
// the request flow.
type Publisher struct {
	url    string
	logger *log.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *log.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// Publish sends event to the booking.events queue.
func (p *Publisher) Publish(ctx context.Context, event BookingEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Errorf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Errorf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		QueueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		p.logger.Errorf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Errorf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         event.Type,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		QueueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		p.logger.Errorf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
