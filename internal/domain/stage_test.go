package domain

import (
	"errors"
	"testing"
)

func TestStageOrderIsSequential(t *testing.T) {
	t.Parallel()

	for i, stage := range Stages() {
		if stage.Order() != i+1 {
			t.Fatalf("Order(%s) = %d, want %d", stage, stage.Order(), i+1)
		}
	}
	if StageCompleted.Order() != 0 {
		t.Fatalf("Order(COMPLETED) = %d, want 0", StageCompleted.Order())
	}
}

func TestParseStageFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Stage
		wantErr bool
	}{
		{input: "PUT_UP", want: StagePutUp},
		{input: "put_up", want: StagePutUp},
		{input: "put-up", want: StagePutUp},
		{input: " rack ", want: StageRack},
		{input: "FILTER", want: StageFilter},
		{input: "bottle", want: StageBottle},
		{input: "COMPLETED", wantErr: true},
		{input: "corking", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStageFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStageFromString(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStageFromString(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseStageFromString(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestStageDisplayNames(t *testing.T) {
	t.Parallel()

	want := map[Stage]string{
		StagePutUp:  "Put-up",
		StageRack:   "Rack",
		StageFilter: "Filter",
		StageBottle: "Bottle",
	}
	for stage, name := range want {
		if stage.DisplayName() != name {
			t.Fatalf("DisplayName(%s) = %q, want %q", stage, stage.DisplayName(), name)
		}
	}
}
