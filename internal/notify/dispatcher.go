package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"screenplay-collab/internal/db"
	"screenplay-collab/internal/domain"
	"screenplay-collab/internal/worker"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// StoreDispatcher persists one notification row per recipient
type StoreDispatcher struct {
	db *gorm.DB
}

func NewStoreDispatcher(db *gorm.DB) *StoreDispatcher {
	return &StoreDispatcher{db: db}
}

func (d *StoreDispatcher) Dispatch(ctx context.Context, event Event) error {
	recipients := event.recipients()
	if len(recipients) == 0 {
		return nil
	}

	scriptID := event.ScriptID
	rows := make([]domain.Notification, 0, len(recipients))
	for _, userID := range recipients {
		rows = append(rows, domain.Notification{
			UserID:   userID,
			ScriptID: &scriptID,
			ActorID:  event.ActorID,
			Type:     event.Type,
			Title:    event.Title,
			Message:  event.Message,
		})
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the script may have been deleted while the event sat in the queue
		ok, err := db.ScriptExists(tx, scriptID)
		if err != nil || !ok {
			return err
		}
		return tx.Create(&rows).Error
	})
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher forwards events to a topic for out of process consumers
// (mail, push). Messages are keyed by script so a script's events stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           10 * time.Second,
			ReadTimeout:            10 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Dispatch(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(event.ScriptID, 10)),
		Value: value,
		Time:  event.Timestamp,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Multi fans an event out to every dispatcher and joins their errors
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, event Event) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Notifier hands events to a dispatcher on the worker pool. Delivery is
// best effort and never fails the operation that triggered it.
type Notifier struct {
	dispatcher Dispatcher
	pool       worker.Submitter
	log        zerolog.Logger
}

func NewNotifier(dispatcher Dispatcher, pool worker.Submitter, log zerolog.Logger) *Notifier {
	return &Notifier{dispatcher: dispatcher, pool: pool, log: log}
}

func (n *Notifier) Notify(event Event) {
	if n == nil || n.dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	n.pool.Submit("notify:"+string(event.Type), func(ctx context.Context) error {
		return n.dispatcher.Dispatch(ctx, event)
	})
}
