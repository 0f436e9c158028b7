package storage

import (
	"errors"
	"testing"

	"github.com/claude/rutinas/internal/routine"
	"github.com/google/go-cmp/cmp"
)

// TestFlattenAssemble verifies routine exercises survive the conversion to
// table rows and back, keeping section membership and order.
func TestFlattenAssemble(t *testing.T) {
	rest, reps := 60, 12
	r := routine.New()
	r.Exercises.WarmUp = []routine.Exercise{
		{Name: "Trote", RestTime: &rest, Section: routine.WarmUp},
	}
	r.Exercises.Main = []routine.Exercise{
		{Name: "Press banca", Weight: &routine.Weight{Amount: 60, Unit: routine.Kilograms}, Repetitions: &reps, Section: routine.Main},
		{Name: "Dominadas", Section: routine.Main},
	}

	rows := flatten(r)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[2].Section != "main" || rows[2].Position != 1 {
		t.Errorf("rows[2] = %s/%d, want main/1", rows[2].Section, rows[2].Position)
	}
	if rows[1].WeightUnit == nil || *rows[1].WeightUnit != "kg" {
		t.Errorf("rows[1].WeightUnit = %v, want kg", rows[1].WeightUnit)
	}

	got, err := assemble(rows)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if diff := cmp.Diff(r.Exercises, got); diff != "" {
		t.Errorf("exercises (-want +got):\n%s", diff)
	}
}

// TestAssembleRejectsUnknownSection verifies corrupt rows are reported
// instead of silently dropped.
func TestAssembleRejectsUnknownSection(t *testing.T) {
	_, err := assemble([]exerciseRow{{Section: "cardio", Name: "x"}})
	if !errors.Is(err, routine.ErrInvalidSection) {
		t.Errorf("err = %v, want ErrInvalidSection", err)
	}
}

// TestFlattenEmpty verifies an empty routine has no rows.
func TestFlattenEmpty(t *testing.T) {
	if rows := flatten(routine.New()); len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}
