package queue

import "context"

const (
	// RemindersQueue carries overdue-stage reminder work.
	RemindersQueue = "reminders"
	// RemindersDLQ collects reminder messages rejected as unprocessable.
	RemindersDLQ = "dlq.reminders"

	dlxExchangeName     = "boptrack.dlx"
	remindersRoutingKey = "reminders"
)

// Publisher publishes reminder messages to the work queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg ReminderMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg ReminderMessage) error

// Consumer consumes reminder messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}
