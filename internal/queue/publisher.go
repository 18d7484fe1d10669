package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/restaurant-sim/internal/model"
	"github.com/iliyamo/restaurant-sim/internal/statelog"
)

// Publisher keeps one connection and one channel open for the lifetime of a
// process.  Snapshots are frequent, so dialing per message is not an option.
type Publisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *log.Logger
}

// DialPublisher connects to url and declares the state queue.
func DialPublisher(url string, logger *log.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	// Durable so snapshots survive broker restarts.
	if _, err := ch.QueueDeclare(StateQueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, queue: StateQueueName, logger: logger}, nil
}

// NewEvent wraps a snapshot into the published payload.
func NewEvent(st model.FullState) StateSnapshotEvent {
	return StateSnapshotEvent{
		RunID:       st.RunID,
		Seq:         st.Seq,
		Line:        strings.TrimSuffix(statelog.FormatLine(st), "\n"),
		State:       st,
		PublishedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Publish sends one snapshot as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, st model.FullState) error {
	body, err := json.Marshal(NewEvent(st))
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    fmt.Sprintf("%s-%d", st.RunID, st.Seq),
		Body:         body,
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// Save implements statelog.Sink.  Failures are logged and dropped: the
// stream is an observer and must not stop the simulation.
func (p *Publisher) Save(st model.FullState) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Publish(ctx, st); err != nil && p.logger != nil {
		p.logger.Printf("%v", err)
	}
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}
