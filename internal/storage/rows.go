package storage

import (
	"fmt"

	"github.com/claude/rutinas/internal/routine"
)

// exerciseRow is one row of the routine_exercises table.
type exerciseRow struct {
	Section      string
	Position     int
	Name         string
	WeightAmount *float64
	WeightUnit   *string
	RestSeconds  *int
	Repetitions  *int
}

// flatten lists the exercises of r in section order, numbering positions
// from zero within each section.
func flatten(r routine.Routine) []exerciseRow {
	rows := make([]exerciseRow, 0, r.Exercises.Len())
	for _, s := range routine.Sections {
		for i, e := range r.Exercises.Get(s) {
			row := exerciseRow{
				Section:     string(s),
				Position:    i,
				Name:        e.Name,
				RestSeconds: e.RestTime,
				Repetitions: e.Repetitions,
			}
			if e.Weight != nil {
				amount, unit := e.Weight.Amount, string(e.Weight.Unit)
				row.WeightAmount = &amount
				row.WeightUnit = &unit
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// assemble rebuilds the section map from rows ordered by position.
func assemble(rows []exerciseRow) (routine.Exercises, error) {
	var ex routine.Exercises
	for _, row := range rows {
		s, err := routine.ParseSection(row.Section)
		if err != nil {
			return routine.Exercises{}, fmt.Errorf("exercise %q: %w", row.Name, err)
		}
		e := routine.Exercise{
			Name:        row.Name,
			RestTime:    row.RestSeconds,
			Repetitions: row.Repetitions,
			Section:     s,
		}
		if row.WeightAmount != nil && row.WeightUnit != nil {
			e.Weight = &routine.Weight{Amount: *row.WeightAmount, Unit: routine.Unit(*row.WeightUnit)}
		}
		switch s {
		case routine.WarmUp:
			ex.WarmUp = append(ex.WarmUp, e)
		case routine.Main:
			ex.Main = append(ex.Main, e)
		case routine.CoolDown:
			ex.CoolDown = append(ex.CoolDown, e)
		}
	}
	return ex, nil
}
