package actors

import (
	"context"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/transports/amqp"
)

// recordPublisher is satisfied by *amqp.Publisher.
type recordPublisher interface {
	Publish(ctx context.Context, msg *amqp.Message) error
	Close() error
}

// AMQPOutput publishes every record as a persistent JSON message.
type AMQPOutput struct {
	publisher recordPublisher
}

// Start implements engine.Starter.
func (o *AMQPOutput) Start(a *engine.Actor) error {
	p, err := amqp.Dial(amqp.Config{
		URL:         a.RequireProperty("url"),
		Exchange:    a.PropertyOr("exchange", ""),
		RoutingKey:  a.PropertyOr("routing-key", ""),
		ContentType: a.PropertyOr("content-type", amqp.DefaultContentType),
	}, a.Logger())
	if err != nil {
		return err
	}
	o.publisher = p
	return nil
}

// Handle implements engine.Handler.
func (o *AMQPOutput) Handle(a *engine.Actor, r *record.Record) error {
	if err := o.publisher.Publish(a.Context(), amqp.NewMessage(a.Workflow().ID(), a.Name(), r)); err != nil {
		return err
	}
	a.Emit(r)
	return nil
}

// Finalize implements engine.Finalizer.
func (o *AMQPOutput) Finalize(*engine.Actor) error {
	if o.publisher == nil {
		return nil
	}
	err := o.publisher.Close()
	o.publisher = nil
	return err
}

// Release implements engine.Releaser.
func (o *AMQPOutput) Release(a *engine.Actor) error {
	return o.Finalize(a)
}
