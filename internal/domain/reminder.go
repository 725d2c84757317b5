package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReminderStatus is the delivery lifecycle of an overdue-stage reminder.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "PENDING"
	ReminderStatusQueued  ReminderStatus = "QUEUED"
	ReminderStatusSending ReminderStatus = "SENDING"
	ReminderStatusSent    ReminderStatus = "SENT"
	ReminderStatusFailed  ReminderStatus = "FAILED"
)

func (s ReminderStatus) String() string { return string(s) }

func (s ReminderStatus) IsValid() bool {
	switch s {
	case ReminderStatusPending, ReminderStatusQueued, ReminderStatusSending, ReminderStatusSent, ReminderStatusFailed:
		return true
	}
	return false
}

// Reminder is one overdue-stage notification owed to a winery customer.
// At most one non-failed reminder exists per (batch, stage).
type Reminder struct {
	ID            string
	WineryID      string
	BatchID       string
	Stage         Stage
	DueDate       time.Time
	Recipient     string
	CorrelationID string
	Status        ReminderStatus
	AttemptCount  int
	MaxAttempts   int
	NextRetryAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Reminder) Validate() error {
	if strings.TrimSpace(r.WineryID) == "" {
		return fmt.Errorf("%w: winery id is required", ErrValidation)
	}
	if strings.TrimSpace(r.BatchID) == "" {
		return fmt.Errorf("%w: batch id is required", ErrValidation)
	}
	if !r.Stage.IsValid() {
		return fmt.Errorf("%w: invalid stage %q", ErrValidation, r.Stage)
	}
	if strings.TrimSpace(r.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if r.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}
	return nil
}

// ReminderAttempt records a single delivery attempt for a reminder.
type ReminderAttempt struct {
	ID            string
	ReminderID    string
	AttemptNumber int
	StatusCode    *int
	ResponseBody  *string
	Error         *string
	CreatedAt     time.Time
}
