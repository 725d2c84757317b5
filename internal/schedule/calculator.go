package schedule

import (
	"fmt"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
)

// rackIntervalDays is the fixed racking interval. Every kit racks two
// weeks after put-up regardless of its advertised duration.
const rackIntervalDays = 14

// Schedule is the computed set of production dates for one batch,
// normalized to business-timezone midnights.
type Schedule struct {
	PutUp  time.Time
	Rack   time.Time
	Filter time.Time
	Bottle time.Time
}

// Compute derives the four production dates for a new batch.
//
// Put-up is today when the kit was already put up at sale time (any
// explicit date is ignored), otherwise the explicit put-up date, which
// is then required. Racking follows put-up by a fixed two weeks; the
// filter interval is the kit duration minus those two weeks; bottling
// is the day after filtering, shifted off Sunday.
//
// Pure and deterministic given its inputs: "now" is injected, never
// read from the wall clock.
func (c *Calendar) Compute(
	disposition domain.PutUpDisposition,
	dateOfSale time.Time,
	explicitPutUp *time.Time,
	kit domain.KitDuration,
	now time.Time,
) (Schedule, error) {
	if !disposition.IsValid() {
		return Schedule{}, fmt.Errorf("%w: invalid put-up disposition %q", domain.ErrValidation, disposition)
	}
	if dateOfSale.IsZero() {
		return Schedule{}, fmt.Errorf("%w: date of sale is required", domain.ErrValidation)
	}
	if !kit.IsValid() {
		return Schedule{}, fmt.Errorf("%w: invalid kit duration %d weeks (allowed: 4, 5, 6, 8)", domain.ErrValidation, kit)
	}

	var putUp time.Time
	switch disposition {
	case domain.PutUpAlreadyDone:
		putUp = c.Today(now)
	case domain.PutUpScheduled:
		if explicitPutUp == nil || explicitPutUp.IsZero() {
			return Schedule{}, fmt.Errorf("%w: put-up date is required when put-up is scheduled", domain.ErrValidation)
		}
		putUp = c.DateOnly(*explicitPutUp)
	}

	rack := c.AddDays(putUp, rackIntervalDays)
	filter := c.AddWeeks(rack, kit.Weeks()-2)
	bottle := c.AvoidSundayEnd(c.AddDays(filter, 1))

	s := Schedule{PutUp: putUp, Rack: rack, Filter: filter, Bottle: bottle}
	if err := s.checkOrdering(); err != nil {
		return Schedule{}, err
	}

	return s, nil
}

// checkOrdering asserts the strict ascending invariant. With the closed
// kit-duration enum it cannot fire; it guards against future interval edits.
func (s Schedule) checkOrdering() error {
	if !s.PutUp.Before(s.Rack) {
		return fmt.Errorf("%w: put-up date must be before rack date", domain.ErrValidation)
	}
	if !s.Rack.Before(s.Filter) {
		return fmt.Errorf("%w: rack date must be before filter date", domain.ErrValidation)
	}
	if !s.Filter.Before(s.Bottle) {
		return fmt.Errorf("%w: filter date must be before bottle date", domain.ErrValidation)
	}
	return nil
}
