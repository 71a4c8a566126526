package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/actorflow/actorflow/pkg/record"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	calls  []publishCall
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestPublishEncodesRecord(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(Config{Exchange: "records", RoutingKey: "people"}, ch, nil)

	r := record.New(record.NewProperty("name", "Anna"), record.NewProperty("tag", "a"), record.NewProperty("tag", "b"))
	msg := NewMessage("run-1", "writer", r)

	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(ch.calls) != 1 {
		t.Fatalf("Expected 1 publish, got: %d", len(ch.calls))
	}

	call := ch.calls[0]
	if call.exchange != "records" || call.key != "people" {
		t.Fatalf("Expected records/people, got: %s/%s", call.exchange, call.key)
	}
	if call.msg.ContentType != DefaultContentType {
		t.Fatalf("Expected default content type, got: %s", call.msg.ContentType)
	}
	if call.msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("Expected persistent delivery, got: %d", call.msg.DeliveryMode)
	}
	if call.msg.MessageId != msg.ID {
		t.Fatalf("Expected message id %s, got: %s", msg.ID, call.msg.MessageId)
	}

	var decoded Message
	if err := json.Unmarshal(call.msg.Body, &decoded); err != nil {
		t.Fatalf("Expected valid JSON body, got: %v", err)
	}
	if decoded.RunID != "run-1" || decoded.Actor != "writer" || decoded.Type != MessageTypeRecord {
		t.Fatalf("Unexpected envelope: %+v", decoded)
	}
	if decoded.Record.String() != r.String() {
		t.Fatalf("Expected record %s, got: %s", r, decoded.Record)
	}
}

func TestPublishError(t *testing.T) {
	boom := errors.New("channel closed")
	p := newPublisher(Config{Exchange: "x"}, &fakeChannel{err: boom}, nil)

	err := p.Publish(context.Background(), NewMessage("", "", record.New()))
	if !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped channel error, got: %v", err)
	}
}

func TestPublishAfterClose(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(Config{}, ch, nil)

	if err := p.Close(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !ch.closed {
		t.Fatal("Expected channel to be closed")
	}
	if err := p.Publish(context.Background(), NewMessage("", "", record.New())); err == nil {
		t.Fatal("Expected error publishing on closed publisher")
	}
}

func TestDialRequiresURL(t *testing.T) {
	if _, err := Dial(Config{}, nil); err == nil {
		t.Fatal("Expected error for empty URL")
	}
}

func TestDialLive(t *testing.T) {
	url := os.Getenv("ACTORFLOW_TEST_AMQP_URL")
	if url == "" {
		t.Skip("ACTORFLOW_TEST_AMQP_URL not set")
	}

	p, err := Dial(Config{URL: url, RoutingKey: "actorflow-test"}, nil)
	if err != nil {
		t.Fatalf("Expected dial to succeed, got: %v", err)
	}
	defer p.Close()

	if err := p.Publish(context.Background(), NewMessage("run", "actor", record.New(record.NewProperty("k", "v")))); err != nil {
		t.Fatalf("Expected publish to succeed, got: %v", err)
	}
}
