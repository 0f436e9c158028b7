package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/rutinas/internal/routine"
	"github.com/mark3labs/mcp-go/mcp"
)

var resVocabulary = mcp.NewResource(
	"rutinas://vocabulary",
	"Routine Vocabulary",
	mcp.WithResourceDescription("Sections, weight units, default routine name and action types understood by the routine editor"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) vocabulary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	vocab := map[string]any{
		"sections":     routine.Sections,
		"units":        []routine.Unit{routine.Kilograms, routine.Pounds},
		"default_name": routine.DefaultName,
		"actions": []routine.ActionType{
			routine.TypeRenameRoutine,
			routine.TypeAddExercise,
			routine.TypeRemoveExercise,
			routine.TypeUpdateExercise,
		},
	}

	data, err := json.Marshal(vocab)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
