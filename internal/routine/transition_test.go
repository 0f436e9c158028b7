package routine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ex(name string, s Section) Exercise {
	return Exercise{Name: name, Section: s}
}

func routineWith(main ...string) Routine {
	r := New()
	for _, n := range main {
		r.Exercises.Main = append(r.Exercises.Main, ex(n, Main))
	}
	return r
}

func names(seq []Exercise) []string {
	out := make([]string, len(seq))
	for i, e := range seq {
		out[i] = e.Name
	}
	return out
}

func mustTransition(t *testing.T, s Routine, a Action) Routine {
	t.Helper()
	next, err := Transition(s, a)
	if err != nil {
		t.Fatalf("Transition(%s): %v", a.Type(), err)
	}
	return next
}

// TestRenameSetsNameOnly verifies rename replaces the name verbatim and
// leaves every section untouched, including the empty string case.
func TestRenameSetsNameOnly(t *testing.T) {
	start := routineWith("a", "b")
	start.Exercises.WarmUp = []Exercise{ex("w", WarmUp)}

	for _, name := range []string{"Piernas", "", "  spaced  "} {
		next := mustTransition(t, start, Rename(name))
		if next.Name != name {
			t.Errorf("name = %q, want %q", next.Name, name)
		}
		if diff := cmp.Diff(start.Exercises, next.Exercises); diff != "" {
			t.Errorf("exercises changed (-want +got):\n%s", diff)
		}
	}
}

// TestRenameMissingName verifies that a rename without a name payload is a
// contract violation.
func TestRenameMissingName(t *testing.T) {
	_, err := Transition(New(), RenameRoutine{})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
}

// TestAddAppendsToSection verifies add grows only the target section and
// puts the new exercise last.
func TestAddAppendsToSection(t *testing.T) {
	for _, s := range Sections {
		t.Run(string(s), func(t *testing.T) {
			start := routineWith("a", "b")
			e := ex("new", s)
			next := mustTransition(t, start, AddExercise{Exercise: e})

			got := next.Exercises.Get(s)
			want := len(start.Exercises.Get(s)) + 1
			if len(got) != want {
				t.Fatalf("len(%s) = %d, want %d", s, len(got), want)
			}
			if diff := cmp.Diff(e, got[len(got)-1]); diff != "" {
				t.Errorf("last element (-want +got):\n%s", diff)
			}
			for _, other := range Sections {
				if other == s {
					continue
				}
				if diff := cmp.Diff(start.Exercises.Get(other), next.Exercises.Get(other)); diff != "" {
					t.Errorf("section %s changed (-want +got):\n%s", other, diff)
				}
			}
			if next.Name != start.Name {
				t.Errorf("name = %q, want %q", next.Name, start.Name)
			}
		})
	}
}

// TestAddTwiceKeepsBoth verifies that adding the same exercise twice yields
// two entries; append is not a set union.
func TestAddTwiceKeepsBoth(t *testing.T) {
	e := ex("Sentadilla", Main)
	r := mustTransition(t, New(), AddExercise{Exercise: e})
	r = mustTransition(t, r, AddExercise{Exercise: e})
	if got := len(r.Exercises.Main); got != 2 {
		t.Fatalf("len(main) = %d, want 2", got)
	}
}

// TestAddInvalidSection verifies an exercise with an unknown section is
// rejected without touching the routine.
func TestAddInvalidSection(t *testing.T) {
	start := routineWith("a")
	next, err := Transition(start, AddExercise{Exercise: ex("x", Section("stretch"))})
	if !errors.Is(err, ErrInvalidSection) {
		t.Fatalf("err = %v, want ErrInvalidSection", err)
	}
	if diff := cmp.Diff(start, next); diff != "" {
		t.Errorf("routine changed (-want +got):\n%s", diff)
	}
}

// TestRemove covers valid and out-of-range indices.
func TestRemove(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"middle", 1, []string{"a", "c"}},
		{"first", 0, []string{"b", "c"}},
		{"last", 2, []string{"a", "b"}},
		{"past end", 5, []string{"a", "b", "c"}},
		{"at length", 3, []string{"a", "b", "c"}},
		{"negative", -1, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := mustTransition(t, routineWith("a", "b", "c"), RemoveExercise{Section: Main, Index: tt.index})
			if diff := cmp.Diff(tt.want, names(next.Exercises.Main)); diff != "" {
				t.Errorf("main (-want +got):\n%s", diff)
			}
		})
	}
}

// TestRemoveOutOfRangeOnShortSection mirrors the index-5-on-two-elements case.
func TestRemoveOutOfRangeOnShortSection(t *testing.T) {
	start := routineWith("a", "b")
	next := mustTransition(t, start, RemoveExercise{Section: Main, Index: 5})
	if diff := cmp.Diff(start, next); diff != "" {
		t.Errorf("routine changed (-want +got):\n%s", diff)
	}
}

// TestUpdate covers valid and out-of-range indices.
func TestUpdate(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"middle", 1, []string{"a", "B", "c"}},
		{"first", 0, []string{"B", "b", "c"}},
		{"past end", 3, []string{"a", "b", "c"}},
		{"negative", -2, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := mustTransition(t, routineWith("a", "b", "c"), UpdateExercise{Index: tt.index, Exercise: ex("B", Main)})
			if diff := cmp.Diff(tt.want, names(next.Exercises.Main)); diff != "" {
				t.Errorf("main (-want +got):\n%s", diff)
			}
		})
	}
}

// TestUpdateUsesNewSection verifies the target section comes from the new
// exercise value, not from wherever the old one lived.
func TestUpdateUsesNewSection(t *testing.T) {
	start := routineWith("a")
	start.Exercises.CoolDown = []Exercise{ex("stretch", CoolDown)}

	reps := 10
	updated := Exercise{Name: "long stretch", Repetitions: &reps, Section: CoolDown}
	next := mustTransition(t, start, UpdateExercise{Index: 0, Exercise: updated})

	if diff := cmp.Diff([]Exercise{updated}, next.Exercises.CoolDown); diff != "" {
		t.Errorf("coolDown (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(start.Exercises.Main, next.Exercises.Main); diff != "" {
		t.Errorf("main changed (-want +got):\n%s", diff)
	}
}

// TestTransitionDoesNotMutateInput verifies the previous snapshot stays
// valid after every kind of action, including appends into a slice with
// spare capacity.
func TestTransitionDoesNotMutateInput(t *testing.T) {
	seq := make([]Exercise, 2, 8)
	seq[0], seq[1] = ex("a", Main), ex("b", Main)
	start := New()
	start.Exercises.Main = seq

	actions := []Action{
		Rename("otra"),
		AddExercise{Exercise: ex("c", Main)},
		RemoveExercise{Section: Main, Index: 0},
		UpdateExercise{Index: 1, Exercise: ex("B", Main)},
	}
	for _, a := range actions {
		mustTransition(t, start, a)
	}

	if start.Name != DefaultName {
		t.Errorf("name = %q, want %q", start.Name, DefaultName)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names(start.Exercises.Main)); diff != "" {
		t.Errorf("input main changed (-want +got):\n%s", diff)
	}
	if spare := seq[:3][2]; spare.Name != "" {
		t.Errorf("backing array written past len: %+v", spare)
	}

	// A later append to the first result must not leak into a sibling.
	r1 := mustTransition(t, start, AddExercise{Exercise: ex("x", Main)})
	r2 := mustTransition(t, start, AddExercise{Exercise: ex("y", Main)})
	if r1.Exercises.Main[2].Name != "x" || r2.Exercises.Main[2].Name != "y" {
		t.Errorf("sibling snapshots share storage: %v / %v", names(r1.Exercises.Main), names(r2.Exercises.Main))
	}
}

// TestUnknownAction verifies a nil action is rejected as a contract violation.
func TestUnknownAction(t *testing.T) {
	_, err := Transition(New(), nil)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}
}

// TestEndToEndScenario walks the default routine through two adds and a
// remove.
func TestEndToEndScenario(t *testing.T) {
	s := NewStore(New(), nil)
	for _, a := range []Action{
		AddExercise{Exercise: ex("Press banca", Main)},
		AddExercise{Exercise: ex("Dominadas", Main)},
		RemoveExercise{Section: Main, Index: 0},
	} {
		if _, err := s.Dispatch(a); err != nil {
			t.Fatalf("Dispatch(%s): %v", a.Type(), err)
		}
	}

	want := Routine{
		Name:      "Rutina 1",
		Exercises: Exercises{Main: []Exercise{{Name: "Dominadas", Section: Main}}},
	}
	if diff := cmp.Diff(want, s.Current()); diff != "" {
		t.Errorf("final routine (-want +got):\n%s", diff)
	}
	if len(s.Current().Exercises.WarmUp) != 0 || len(s.Current().Exercises.CoolDown) != 0 {
		t.Error("warmUp and coolDown should be empty")
	}
}
