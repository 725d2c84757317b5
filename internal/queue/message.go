package queue

import (
	"fmt"
	"strings"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
)

// ReminderMessage is the broker payload for reminder delivery.
type ReminderMessage struct {
	ReminderID    string       `json:"reminderId"`
	WineryID      string       `json:"wineryId"`
	BatchID       string       `json:"batchId"`
	Stage         domain.Stage `json:"stage"`
	CorrelationID string       `json:"correlationId,omitempty"`
}

func (m ReminderMessage) Validate() error {
	if strings.TrimSpace(m.ReminderID) == "" {
		return fmt.Errorf("reminderId is required")
	}
	if strings.TrimSpace(m.WineryID) == "" {
		return fmt.Errorf("wineryId is required")
	}
	if strings.TrimSpace(m.BatchID) == "" {
		return fmt.Errorf("batchId is required")
	}
	if !m.Stage.IsValid() {
		return fmt.Errorf("invalid stage %q", m.Stage)
	}
	return nil
}
