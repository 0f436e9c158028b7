package routine

import (
	"encoding/json"
	"fmt"
)

// envelope is the wire form of an action: {"type": "...", "payload": {...}}.
type envelope struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type renamePayload struct {
	Name        *string `json:"name"`
	RoutineName *string `json:"routineName,omitempty"` // older clients
}

type addPayload struct {
	Exercise *Exercise `json:"exercise"`
}

type removePayload struct {
	Section *Section `json:"section"`
	Index   *int     `json:"index"`
}

type updatePayload struct {
	Index           *int      `json:"index"`
	Exercise        *Exercise `json:"exercise"`
	ExerciseUpdated *Exercise `json:"exerciseUpdated,omitempty"` // older clients
}

// DecodeAction parses an encoded action. Unknown type tags fail with
// ErrUnknownAction and absent required payload fields with ErrMissingField.
// The older ROUTINE_NAME_CHANGED tag and the routineName and exerciseUpdated
// payload keys are accepted as aliases.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding action: %w", err)
	}

	switch env.Type {
	case TypeRenameRoutine, TypeRoutineNameChanged:
		var p renamePayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.Name == nil {
			p.Name = p.RoutineName
		}
		if p.Name == nil {
			return nil, missing(env.Type, "name")
		}
		return RenameRoutine{Name: p.Name}, nil

	case TypeAddExercise:
		var p addPayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.Exercise == nil {
			return nil, missing(env.Type, "exercise")
		}
		return AddExercise{Exercise: *p.Exercise}, nil

	case TypeRemoveExercise:
		var p removePayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.Section == nil {
			return nil, missing(env.Type, "section")
		}
		if p.Index == nil {
			return nil, missing(env.Type, "index")
		}
		return RemoveExercise{Section: *p.Section, Index: *p.Index}, nil

	case TypeUpdateExercise:
		var p updatePayload
		if err := decodePayload(env, &p); err != nil {
			return nil, err
		}
		if p.Index == nil {
			return nil, missing(env.Type, "index")
		}
		if p.Exercise == nil {
			p.Exercise = p.ExerciseUpdated
		}
		if p.Exercise == nil {
			return nil, missing(env.Type, "exercise")
		}
		return UpdateExercise{Index: *p.Index, Exercise: *p.Exercise}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
}

// EncodeAction returns the wire form of a.
func EncodeAction(a Action) ([]byte, error) {
	var payload any
	switch v := a.(type) {
	case RenameRoutine:
		payload = renamePayload{Name: v.Name}
	case AddExercise:
		payload = addPayload{Exercise: &v.Exercise}
	case RemoveExercise:
		payload = removePayload{Section: &v.Section, Index: &v.Index}
	case UpdateExercise:
		payload = updatePayload{Index: &v.Index, Exercise: &v.Exercise}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", a.Type(), err)
	}
	return json.Marshal(envelope{Type: a.Type(), Payload: raw})
}

func decodePayload(env envelope, dst any) error {
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return missing(env.Type, "payload")
	}
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		return fmt.Errorf("decoding %s payload: %w", env.Type, err)
	}
	return nil
}

func missing(t ActionType, field string) error {
	return fmt.Errorf("%s: %s: %w", t, field, ErrMissingField)
}
