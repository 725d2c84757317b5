package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
)

// ReminderEmail is the rendered payload for one overdue-stage reminder.
type ReminderEmail struct {
	To           string
	WineryName   string
	BOPNumber    int64
	CustomerName string
	WineKitName  string
	Stage        domain.Stage
	DueDate      time.Time
}

func (e ReminderEmail) Validate() error {
	if strings.TrimSpace(e.To) == "" {
		return fmt.Errorf("recipient is required")
	}
	if !e.Stage.IsValid() {
		return fmt.Errorf("invalid stage %q", e.Stage)
	}
	if e.DueDate.IsZero() {
		return fmt.Errorf("due date is required")
	}
	return nil
}

// Provider is the outbound reminder delivery port.
type Provider interface {
	Send(ctx context.Context, email ReminderEmail) (*ProviderResponse, error)
}

// ProviderResponse stores provider call metadata for audit and persistence.
type ProviderResponse struct {
	StatusCode int
	Body       string
	MessageID  string
}
