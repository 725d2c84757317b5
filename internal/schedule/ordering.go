package schedule

import (
	"fmt"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
)

// ValidateStageDates checks a batch's stage dates against the strict
// ordering invariant put-up < rack < filter < bottle, at day granularity.
// Unset dates are skipped; every set pair must be strictly ascending.
// On violation the error names the conflicting pair of stages so the
// caller can surface the exact fields; the dates are never reordered.
func (c *Calendar) ValidateStageDates(b *domain.Batch) error {
	type staged struct {
		stage domain.Stage
		date  time.Time
	}

	set := make([]staged, 0, 4)
	for _, stage := range domain.Stages() {
		if d := b.StageDate(stage); d != nil {
			set = append(set, staged{stage: stage, date: c.DateOnly(*d)})
		}
	}

	for i := 0; i < len(set); i++ {
		for j := i + 1; j < len(set); j++ {
			if !set[i].date.Before(set[j].date) {
				return fmt.Errorf("%w: %s date must be before %s date",
					domain.ErrValidation,
					set[i].stage.DisplayName(),
					set[j].stage.DisplayName(),
				)
			}
		}
	}

	return nil
}
