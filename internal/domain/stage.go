package domain

import (
	"fmt"
	"strings"
)

// Stage represents one of the four sequential production steps of a batch.
type Stage string

const (
	StagePutUp  Stage = "PUT_UP"
	StageRack   Stage = "RACK"
	StageFilter Stage = "FILTER"
	StageBottle Stage = "BOTTLE"

	// StageCompleted is not a workable stage; it is the CurrentStage value
	// of a batch whose four stages are all done.
	StageCompleted Stage = "COMPLETED"
)

func (s Stage) String() string { return string(s) }

func (s Stage) IsValid() bool {
	switch s {
	case StagePutUp, StageRack, StageFilter, StageBottle:
		return true
	}
	return false
}

// Order returns the fixed production order of a stage, 1 through 4.
// Invalid stages return 0.
func (s Stage) Order() int {
	switch s {
	case StagePutUp:
		return 1
	case StageRack:
		return 2
	case StageFilter:
		return 3
	case StageBottle:
		return 4
	}
	return 0
}

// DisplayName returns the human label used in task lists.
func (s Stage) DisplayName() string {
	switch s {
	case StagePutUp:
		return "Put-up"
	case StageRack:
		return "Rack"
	case StageFilter:
		return "Filter"
	case StageBottle:
		return "Bottle"
	case StageCompleted:
		return "Completed"
	}
	return string(s)
}

func ParseStageFromString(s string) (Stage, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	st := Stage(normalized)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid stage %q", ErrValidation, s)
	}
	return st, nil
}

// Stages returns the four workable stages in production order.
func Stages() []Stage {
	return []Stage{StagePutUp, StageRack, StageFilter, StageBottle}
}
