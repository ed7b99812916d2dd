// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// # Kafka Notifier

// Task change event names carried on the wire.
const (
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"
	EventTaskDeleted = "task_deleted"
)

// changeEvent is the published message payload. Messages are keyed by task
// id so updates to one task stay ordered within a partition.
type changeEvent struct {
	Event     string    `json:"event"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// KafkaNotifier publishes task change events to a Kafka topic.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier creates a notifier writing to the given brokers and topic.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// TaskCreated publishes a creation event.
func (n *KafkaNotifier) TaskCreated(ctx context.Context, task *Task) error {
	return n.publish(ctx, EventTaskCreated, task)
}

// TaskUpdated publishes an update event.
func (n *KafkaNotifier) TaskUpdated(ctx context.Context, task *Task) error {
	return n.publish(ctx, EventTaskUpdated, task)
}

// TaskDeleted publishes a deletion event.
func (n *KafkaNotifier) TaskDeleted(ctx context.Context, task *Task) error {
	return n.publish(ctx, EventTaskDeleted, task)
}

func (n *KafkaNotifier) publish(ctx context.Context, event string, task *Task) error {
	payload, err := json.Marshal(changeEvent{
		Event:     event,
		TaskID:    task.ID,
		Title:     task.Title,
		UserID:    task.UserID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.ID),
		Value: payload,
	})
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// NoopNotifier discards all events. Used when no brokers are configured.
type NoopNotifier struct{}

func (NoopNotifier) TaskCreated(context.Context, *Task) error { return nil }
func (NoopNotifier) TaskUpdated(context.Context, *Task) error { return nil }
func (NoopNotifier) TaskDeleted(context.Context, *Task) error { return nil }
