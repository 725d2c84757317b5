package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/vintnerlabs/bop-tracker/internal/domain"
)

func day(t *testing.T, cal *Calendar, year int, month time.Month, d int) time.Time {
	t.Helper()
	return time.Date(year, month, d, 0, 0, 0, 0, cal.Location())
}

func TestComputeScheduledSixWeekKit(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)

	// Put-up Saturday June 15; the six-week kit filters six weeks after
	// put-up and the day after lands on a Sunday, so bottling shifts to
	// Monday.
	putUp := day(t, cal, 2024, time.June, 15)
	sale := day(t, cal, 2024, time.June, 10)

	got, err := cal.Compute(domain.PutUpScheduled, sale, &putUp, domain.KitSixWeeks, time.Now())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	assertSameDay(t, cal, got.PutUp, day(t, cal, 2024, time.June, 15), "putUp")
	assertSameDay(t, cal, got.Rack, day(t, cal, 2024, time.June, 29), "rack")
	assertSameDay(t, cal, got.Filter, day(t, cal, 2024, time.July, 27), "filter")
	assertSameDay(t, cal, got.Bottle, day(t, cal, 2024, time.July, 29), "bottle")
	if got.Bottle.Weekday() == time.Sunday {
		t.Fatal("bottle date must never be a Sunday")
	}
}

func TestComputeScheduledFourWeekKit(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)

	// Four-week kit: filter is two weeks after rack, July 13. The next
	// day is Sunday July 14, so bottling becomes Monday July 15.
	putUp := day(t, cal, 2024, time.June, 15)
	sale := day(t, cal, 2024, time.June, 10)

	got, err := cal.Compute(domain.PutUpScheduled, sale, &putUp, domain.KitFourWeeks, time.Now())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	assertSameDay(t, cal, got.Rack, day(t, cal, 2024, time.June, 29), "rack")
	assertSameDay(t, cal, got.Filter, day(t, cal, 2024, time.July, 13), "filter")
	assertSameDay(t, cal, got.Bottle, day(t, cal, 2024, time.July, 15), "bottle")
}

func TestComputeAlreadyDoneUsesTodayAndIgnoresExplicitDate(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)

	now := time.Date(2024, 6, 20, 15, 30, 0, 0, cal.Location())
	stale := day(t, cal, 2024, time.January, 1)
	sale := day(t, cal, 2024, time.June, 20)

	got, err := cal.Compute(domain.PutUpAlreadyDone, sale, &stale, domain.KitFiveWeeks, now)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	assertSameDay(t, cal, got.PutUp, day(t, cal, 2024, time.June, 20), "putUp")
	assertSameDay(t, cal, got.Rack, day(t, cal, 2024, time.July, 4), "rack")
}

func TestComputeScheduledRequiresPutUpDate(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	sale := day(t, cal, 2024, time.June, 10)

	_, err := cal.Compute(domain.PutUpScheduled, sale, nil, domain.KitSixWeeks, time.Now())
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Compute() error = %v, want ErrValidation", err)
	}
}

func TestComputeRejectsInvalidInputs(t *testing.T) {
	t.Parallel()

	cal := newTestCalendar(t)
	putUp := day(t, cal, 2024, time.June, 15)
	sale := day(t, cal, 2024, time.June, 10)

	if _, err := cal.Compute("MAYBE", sale, &putUp, domain.KitSixWeeks, time.Now()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("invalid disposition error = %v, want ErrValidation", err)
	}
	if _, err := cal.Compute(domain.PutUpScheduled, time.Time{}, &putUp, domain.KitSixWeeks, time.Now()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero sale date error = %v, want ErrValidation", err)
	}
	if _, err := cal.Compute(domain.PutUpScheduled, sale, &putUp, domain.KitDuration(7), time.Now()); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("invalid kit error = %v, want ErrValidation", err)
	}
}

func assertSameDay(t *testing.T, cal *Calendar, got, want time.Time, field string) {
	t.Helper()
	if !cal.SameDay(got, want) {
		t.Fatalf("%s = %v, want %v", field, got, want)
	}
}
