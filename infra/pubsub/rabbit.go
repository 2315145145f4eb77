package pubsub

// Optional processed-payment event stream. Downstream consumers subscribe to
// the exchange; the relay itself never reads these messages back.

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

type publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitMQPublisher(ctx context.Context, url string, exchangeName string) (*publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		ch.Close()
		conn.Close()
	}()

	return &publisher{
		conn: conn,
		ch:   ch,
	}, nil
}

func (c *publisher) PublishMessage(routingKey string, exchange string, body []byte) error {
	return c.ch.Publish(
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
