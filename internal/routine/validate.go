package routine

import (
	"fmt"
	"strings"
)

// NormalizeName trims name and falls back to DefaultName when nothing is
// left. Callers apply it before dispatching a rename or saving a routine;
// the reducer itself stores names verbatim.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName
	}
	return name
}

// Validate checks the field constraints of an exercise: a non-empty name,
// a positive weight with a known unit, non-negative rest time and
// repetitions, and a known section.
func Validate(e Exercise) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidExercise)
	}
	if e.Weight != nil {
		if e.Weight.Amount <= 0 {
			return fmt.Errorf("%w: weight must be positive, got %v", ErrInvalidExercise, e.Weight.Amount)
		}
		if !e.Weight.Unit.Valid() {
			return fmt.Errorf("%w: unknown unit %q", ErrInvalidExercise, e.Weight.Unit)
		}
	}
	if e.RestTime != nil && *e.RestTime < 0 {
		return fmt.Errorf("%w: rest time must not be negative", ErrInvalidExercise)
	}
	if e.Repetitions != nil && *e.Repetitions < 0 {
		return fmt.Errorf("%w: repetitions must not be negative", ErrInvalidExercise)
	}
	if !e.Section.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSection, e.Section)
	}
	return nil
}

// Guard applies the input policies that sit in front of the reducer: a
// rename gets its name normalized and added or updated exercises must pass
// Validate. Other actions pass through unchanged.
func Guard(action Action) (Action, error) {
	switch a := action.(type) {
	case RenameRoutine:
		if a.Name != nil {
			return Rename(NormalizeName(*a.Name)), nil
		}
	case AddExercise:
		if err := Validate(a.Exercise); err != nil {
			return nil, err
		}
	case UpdateExercise:
		if err := Validate(a.Exercise); err != nil {
			return nil, err
		}
	}
	return action, nil
}
