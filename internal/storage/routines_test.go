package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/claude/rutinas/internal/routine"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
)

// testDB connects to the database named by RUTINAS_TEST_DSN and applies the
// migrations. Tests using it are skipped when the variable is unset.
func testDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("RUTINAS_TEST_DSN")
	if dsn == "" {
		t.Skip("RUTINAS_TEST_DSN not set")
	}
	if _, err := RunMigrations(dsn, "../../migrations"); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func intPtr(n int) *int { return &n }

// TestSaveGetRoutine verifies a saved routine reads back with the same
// exercises in the same order, and that saving again replaces them.
func TestSaveGetRoutine(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	r := routine.New()
	r.Name = "  Pierna  "
	r.Exercises.WarmUp = []routine.Exercise{
		{Name: "Bici", RestTime: intPtr(30), Section: routine.WarmUp},
	}
	r.Exercises.Main = []routine.Exercise{
		{Name: "Sentadilla", Weight: &routine.Weight{Amount: 80, Unit: routine.Kilograms}, Repetitions: intPtr(5), Section: routine.Main},
		{Name: "Prensa", Weight: &routine.Weight{Amount: 200, Unit: routine.Pounds}, Section: routine.Main},
		{Name: "Zancadas", Repetitions: intPtr(12), Section: routine.Main},
	}

	saved, err := db.SaveRoutine(ctx, r)
	if err != nil {
		t.Fatalf("SaveRoutine: %v", err)
	}
	if saved.ID == nil {
		t.Fatal("saved routine has no id")
	}
	id := uuid.MustParse(*saved.ID)
	t.Cleanup(func() { db.DeleteRoutine(context.Background(), id) }) //nolint:errcheck
	if saved.Name != "Pierna" {
		t.Errorf("saved name = %q, want Pierna", saved.Name)
	}

	got, err := db.GetRoutine(ctx, id)
	if err != nil {
		t.Fatalf("GetRoutine: %v", err)
	}
	if diff := cmp.Diff(saved, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip (-saved +got):\n%s", diff)
	}

	// Saving again under the same id replaces the exercise rows.
	saved.Exercises.Main = saved.Exercises.Main[1:]
	saved.Exercises.CoolDown = []routine.Exercise{{Name: "Estiramientos", Section: routine.CoolDown}}
	resaved, err := db.SaveRoutine(ctx, saved)
	if err != nil {
		t.Fatalf("SaveRoutine again: %v", err)
	}
	if *resaved.ID != *saved.ID {
		t.Errorf("id changed on resave: %s -> %s", *saved.ID, *resaved.ID)
	}
	got, err = db.GetRoutine(ctx, id)
	if err != nil {
		t.Fatalf("GetRoutine after resave: %v", err)
	}
	if diff := cmp.Diff(resaved, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("after resave (-saved +got):\n%s", diff)
	}

	list, err := db.ListRoutines(ctx, 100)
	if err != nil {
		t.Fatalf("ListRoutines: %v", err)
	}
	var found bool
	for _, s := range list {
		if s.ID == id {
			found = true
			if s.ExerciseCount != 4 {
				t.Errorf("exercise count = %d, want 4", s.ExerciseCount)
			}
		}
	}
	if !found {
		t.Errorf("routine %s missing from list", id)
	}
}

// TestRoutineNotFound verifies unknown and deleted ids map to ErrNotFound.
func TestRoutineNotFound(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.GetRoutine(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRoutine(unknown) err = %v, want ErrNotFound", err)
	}
	if err := db.DeleteRoutine(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRoutine(unknown) err = %v, want ErrNotFound", err)
	}

	saved, err := db.SaveRoutine(ctx, routine.New())
	if err != nil {
		t.Fatalf("SaveRoutine: %v", err)
	}
	id := uuid.MustParse(*saved.ID)
	if err := db.DeleteRoutine(ctx, id); err != nil {
		t.Fatalf("DeleteRoutine: %v", err)
	}
	if _, err := db.GetRoutine(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRoutine(deleted) err = %v, want ErrNotFound", err)
	}
}
