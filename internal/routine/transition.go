package routine

import "fmt"

// Transition applies action to state and returns the next routine.
//
// It never modifies state: sequences that change are rebuilt, sequences that
// do not are shared with the input. Remove and Update with an index outside
// the section are no-ops and return state unchanged.
func Transition(state Routine, action Action) (Routine, error) {
	switch a := action.(type) {
	case RenameRoutine:
		if a.Name == nil {
			return state, fmt.Errorf("%s: name: %w", a.Type(), ErrMissingField)
		}
		state.Name = *a.Name
		return state, nil

	case AddExercise:
		s := a.Exercise.Section
		if !s.Valid() {
			return state, fmt.Errorf("%s: %w: %q", a.Type(), ErrInvalidSection, s)
		}
		seq := state.Exercises.Get(s)
		next := make([]Exercise, len(seq), len(seq)+1)
		copy(next, seq)
		next = append(next, a.Exercise)
		state.Exercises = state.Exercises.with(s, next)
		return state, nil

	case RemoveExercise:
		if !a.Section.Valid() {
			return state, fmt.Errorf("%s: %w: %q", a.Type(), ErrInvalidSection, a.Section)
		}
		seq := state.Exercises.Get(a.Section)
		if a.Index < 0 || a.Index >= len(seq) {
			return state, nil
		}
		next := make([]Exercise, 0, len(seq)-1)
		next = append(next, seq[:a.Index]...)
		next = append(next, seq[a.Index+1:]...)
		state.Exercises = state.Exercises.with(a.Section, next)
		return state, nil

	case UpdateExercise:
		s := a.Exercise.Section
		if !s.Valid() {
			return state, fmt.Errorf("%s: %w: %q", a.Type(), ErrInvalidSection, s)
		}
		seq := state.Exercises.Get(s)
		if a.Index < 0 || a.Index >= len(seq) {
			return state, nil
		}
		next := make([]Exercise, len(seq))
		copy(next, seq)
		next[a.Index] = a.Exercise
		state.Exercises = state.Exercises.with(s, next)
		return state, nil

	case nil:
		return state, fmt.Errorf("nil action: %w", ErrUnknownAction)
	}
	return state, fmt.Errorf("%w: %T", ErrUnknownAction, action)
}
