package domain

import (
	"fmt"
	"strings"
	"time"
)

// Winery is a tenant. Every batch, task list, and BOP number sequence is
// partitioned by winery; nothing computes across the partition.
type Winery struct {
	ID           string
	Name         string
	ContactEmail *string

	// NextBOPNumber is the per-winery batch counter. It is bumped
	// atomically with each batch insert and never rewinds, so BOP
	// numbers are strictly increasing and never reused.
	NextBOPNumber int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *Winery) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: winery name is required", ErrValidation)
	}
	return nil
}
