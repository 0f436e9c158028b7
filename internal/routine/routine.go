// Package routine holds the workout routine model and the reducer that
// edits it. A Routine is only ever replaced, never mutated: every edit goes
// through Transition, which returns a new value and leaves the previous
// snapshot intact.
package routine

import (
	"encoding/json"
	"fmt"
)

// DefaultName is the display name given to new routines and substituted
// when a blank name is submitted.
const DefaultName = "Rutina 1"

// Section is one of the three fixed buckets of a routine.
type Section string

const (
	WarmUp   Section = "warmUp"
	Main     Section = "main"
	CoolDown Section = "coolDown"
)

// Sections lists every section in execution order.
var Sections = []Section{WarmUp, Main, CoolDown}

// Valid reports whether s is one of the three known sections.
func (s Section) Valid() bool {
	switch s {
	case WarmUp, Main, CoolDown:
		return true
	}
	return false
}

// ParseSection accepts the wire value of a section.
func ParseSection(v string) (Section, error) {
	s := Section(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSection, v)
	}
	return s, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Section) UnmarshalText(b []byte) error {
	parsed, err := ParseSection(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Unit is the unit of a weight amount.
type Unit string

const (
	Pounds    Unit = "lb"
	Kilograms Unit = "kg"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	return u == Pounds || u == Kilograms
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(b []byte) error {
	parsed := Unit(b)
	if !parsed.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidExercise, string(b))
	}
	*u = parsed
	return nil
}

// Weight is the load used for an exercise.
type Weight struct {
	Amount float64 `json:"amount"`
	Unit   Unit    `json:"unit"`
}

// Exercise is a single unit of work within a routine.
type Exercise struct {
	Name        string  `json:"name"`
	Weight      *Weight `json:"weight,omitempty"`
	RestTime    *int    `json:"restTime,omitempty"` // seconds
	Repetitions *int    `json:"repetitions,omitempty"`
	Section     Section `json:"section"`
}

// Exercises maps each section to its ordered sequence of exercises.
// All three sections are always present; the zero value holds three empty
// sequences.
type Exercises struct {
	WarmUp   []Exercise
	Main     []Exercise
	CoolDown []Exercise
}

// Get returns the sequence for section s, or nil for an unknown section.
func (e Exercises) Get(s Section) []Exercise {
	switch s {
	case WarmUp:
		return e.WarmUp
	case Main:
		return e.Main
	case CoolDown:
		return e.CoolDown
	}
	return nil
}

// with returns a copy of e whose sequence for s is replaced by seq.
// The other two sequences are shared with e.
func (e Exercises) with(s Section, seq []Exercise) Exercises {
	switch s {
	case WarmUp:
		e.WarmUp = seq
	case Main:
		e.Main = seq
	case CoolDown:
		e.CoolDown = seq
	}
	return e
}

// Len returns the total number of exercises across all sections.
func (e Exercises) Len() int {
	return len(e.WarmUp) + len(e.Main) + len(e.CoolDown)
}

type exercisesJSON struct {
	WarmUp   []Exercise `json:"warmUp"`
	Main     []Exercise `json:"main"`
	CoolDown []Exercise `json:"coolDown"`
}

// MarshalJSON always emits all three keys, with [] for empty sections.
func (e Exercises) MarshalJSON() ([]byte, error) {
	return json.Marshal(exercisesJSON{
		WarmUp:   nonNil(e.WarmUp),
		Main:     nonNil(e.Main),
		CoolDown: nonNil(e.CoolDown),
	})
}

// UnmarshalJSON decodes the section-keyed form. Missing keys decode as
// empty sections and each exercise takes the section of its key.
func (e *Exercises) UnmarshalJSON(b []byte) error {
	var raw exercisesJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, s := range Sections {
		seq := raw.sequence(s)
		for i := range seq {
			seq[i].Section = s
		}
	}
	*e = Exercises{WarmUp: raw.WarmUp, Main: raw.Main, CoolDown: raw.CoolDown}
	return nil
}

func (r exercisesJSON) sequence(s Section) []Exercise {
	switch s {
	case WarmUp:
		return r.WarmUp
	case Main:
		return r.Main
	default:
		return r.CoolDown
	}
}

func nonNil(seq []Exercise) []Exercise {
	if seq == nil {
		return []Exercise{}
	}
	return seq
}

// Routine is the aggregate being edited.
type Routine struct {
	ID        *string   `json:"id,omitempty"`
	Name      string    `json:"name"`
	Exercises Exercises `json:"exercises"`
}

// New returns a fresh routine with the default name and empty sections.
func New() Routine {
	return Routine{Name: DefaultName}
}
