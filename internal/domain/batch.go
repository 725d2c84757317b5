package domain

import (
	"fmt"
	"strings"
	"time"
)

// KitDuration is the advertised kit length in weeks. Only four kit
// lengths exist on the market; anything else is rejected, never clamped.
type KitDuration int

const (
	KitFourWeeks  KitDuration = 4
	KitFiveWeeks  KitDuration = 5
	KitSixWeeks   KitDuration = 6
	KitEightWeeks KitDuration = 8
)

func (k KitDuration) IsValid() bool {
	switch k {
	case KitFourWeeks, KitFiveWeeks, KitSixWeeks, KitEightWeeks:
		return true
	}
	return false
}

func (k KitDuration) Weeks() int { return int(k) }

func ParseKitDuration(weeks int) (KitDuration, error) {
	k := KitDuration(weeks)
	if !k.IsValid() {
		return 0, fmt.Errorf("%w: invalid kit duration %d weeks (allowed: 4, 5, 6, 8)", ErrValidation, weeks)
	}
	return k, nil
}

// PutUpDisposition says whether the put-up already happened at sale time
// or is scheduled for an explicit future date.
type PutUpDisposition string

const (
	PutUpAlreadyDone PutUpDisposition = "ALREADY_DONE"
	PutUpScheduled   PutUpDisposition = "SCHEDULED"
)

func (d PutUpDisposition) String() string { return string(d) }

func (d PutUpDisposition) IsValid() bool {
	switch d {
	case PutUpAlreadyDone, PutUpScheduled:
		return true
	}
	return false
}

func ParsePutUpDispositionFromString(s string) (PutUpDisposition, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	d := PutUpDisposition(normalized)
	if !d.IsValid() {
		return "", fmt.Errorf("%w: invalid put-up disposition %q", ErrValidation, s)
	}
	return d, nil
}

// BatchStatus is the overall state of a batch. It is always derived from
// the four stage flags and never stored independently.
type BatchStatus string

const (
	BatchStatusPending BatchStatus = "PENDING"
	BatchStatusDone    BatchStatus = "DONE"
)

func (s BatchStatus) String() string { return string(s) }

// Batch is one production run for one customer order. The four stage
// dates are nil until computed; the four done flags are the only source
// of progress truth.
type Batch struct {
	ID        string
	WineryID  string
	BOPNumber int64

	CustomerName     string
	CustomerEmail    *string
	WineKitName      string
	KitDurationWeeks KitDuration
	DateOfSale       time.Time
	Notes            *string

	PutUpDate  *time.Time
	RackDate   *time.Time
	FilterDate *time.Time
	BottleDate *time.Time

	PutUpDone  bool
	RackDone   bool
	FilterDone bool
	BottleDone bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Batch) Validate() error {
	if strings.TrimSpace(b.CustomerName) == "" {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if strings.TrimSpace(b.WineKitName) == "" {
		return fmt.Errorf("%w: wine kit name is required", ErrValidation)
	}
	if !b.KitDurationWeeks.IsValid() {
		return fmt.Errorf("%w: invalid kit duration %d weeks (allowed: 4, 5, 6, 8)", ErrValidation, b.KitDurationWeeks)
	}
	if b.DateOfSale.IsZero() {
		return fmt.Errorf("%w: date of sale is required", ErrValidation)
	}
	return nil
}

// Status derives the overall batch state: DONE iff all four stage flags
// are set. There is deliberately no setter.
func (b *Batch) Status() BatchStatus {
	if b.PutUpDone && b.RackDone && b.FilterDone && b.BottleDone {
		return BatchStatusDone
	}
	return BatchStatusPending
}

// CurrentStage returns the earliest not-yet-completed stage, scanning in
// production order, or StageCompleted when every flag is set.
func (b *Batch) CurrentStage() Stage {
	for _, stage := range Stages() {
		if !b.StageDone(stage) {
			return stage
		}
	}
	return StageCompleted
}

func (b *Batch) StageDone(stage Stage) bool {
	switch stage {
	case StagePutUp:
		return b.PutUpDone
	case StageRack:
		return b.RackDone
	case StageFilter:
		return b.FilterDone
	case StageBottle:
		return b.BottleDone
	}
	return false
}

func (b *Batch) SetStageDone(stage Stage, done bool) error {
	switch stage {
	case StagePutUp:
		b.PutUpDone = done
	case StageRack:
		b.RackDone = done
	case StageFilter:
		b.FilterDone = done
	case StageBottle:
		b.BottleDone = done
	default:
		return fmt.Errorf("%w: invalid stage %q", ErrValidation, stage)
	}
	return nil
}

func (b *Batch) StageDate(stage Stage) *time.Time {
	switch stage {
	case StagePutUp:
		return b.PutUpDate
	case StageRack:
		return b.RackDate
	case StageFilter:
		return b.FilterDate
	case StageBottle:
		return b.BottleDate
	}
	return nil
}

func (b *Batch) SetStageDate(stage Stage, date time.Time) error {
	switch stage {
	case StagePutUp:
		b.PutUpDate = &date
	case StageRack:
		b.RackDate = &date
	case StageFilter:
		b.FilterDate = &date
	case StageBottle:
		b.BottleDate = &date
	default:
		return fmt.Errorf("%w: invalid stage %q", ErrValidation, stage)
	}
	return nil
}
