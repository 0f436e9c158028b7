package routine

// ActionType is the wire tag of an action.
type ActionType string

const (
	TypeRenameRoutine  ActionType = "RENAME_ROUTINE"
	TypeAddExercise    ActionType = "ADD_EXERCISE"
	TypeRemoveExercise ActionType = "REMOVE_EXERCISE"
	TypeUpdateExercise ActionType = "UPDATE_EXERCISE"

	// TypeRoutineNameChanged is an older tag for RENAME_ROUTINE, still
	// accepted by DecodeAction. EncodeAction never emits it.
	TypeRoutineNameChanged ActionType = "ROUTINE_NAME_CHANGED"
)

// Action is a requested state change. The set of actions is closed: only
// the variants in this package implement it.
type Action interface {
	Type() ActionType
	action()
}

// RenameRoutine sets the routine name verbatim. Name is required; a nil
// Name is a contract violation.
type RenameRoutine struct {
	Name *string
}

// AddExercise appends Exercise to the end of its section.
type AddExercise struct {
	Exercise Exercise
}

// RemoveExercise drops the element at Index from Section.
type RemoveExercise struct {
	Section Section
	Index   int
}

// UpdateExercise replaces the element at Index in Exercise.Section.
type UpdateExercise struct {
	Index    int
	Exercise Exercise
}

func (RenameRoutine) Type() ActionType  { return TypeRenameRoutine }
func (AddExercise) Type() ActionType    { return TypeAddExercise }
func (RemoveExercise) Type() ActionType { return TypeRemoveExercise }
func (UpdateExercise) Type() ActionType { return TypeUpdateExercise }

func (RenameRoutine) action()  {}
func (AddExercise) action()    {}
func (RemoveExercise) action() {}
func (UpdateExercise) action() {}

// Rename builds a RenameRoutine carrying name.
func Rename(name string) RenameRoutine {
	return RenameRoutine{Name: &name}
}
