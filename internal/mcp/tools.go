package mcp

import (
	"context"
	"fmt"
	"math"

	"github.com/claude/rutinas/internal/routine"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

var sectionEnum = mcp.Enum(string(routine.WarmUp), string(routine.Main), string(routine.CoolDown))

// --- Tool definitions ---

var toolOpenSession = mcp.NewTool("open_session",
	mcp.WithDescription("Start editing a new routine. Returns the session id and the fresh routine (named 'Rutina 1', all sections empty)."),
)

var toolGetRoutine = mcp.NewTool("get_routine",
	mcp.WithDescription("Return the current routine of a session."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session id returned by open_session")),
)

var toolRenameRoutine = mcp.NewTool("rename_routine",
	mcp.WithDescription("Rename the routine. Blank names are replaced by 'Rutina 1'."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
	mcp.WithString("name", mcp.Required(), mcp.Description("New routine name")),
)

var toolAddExercise = mcp.NewTool("add_exercise",
	mcp.WithDescription("Append an exercise to the end of a section."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (e.g. 'Press banca')")),
	mcp.WithString("section", mcp.Required(), mcp.Description("Section to append to"), sectionEnum),
	mcp.WithNumber("weight", mcp.Description("Load amount, must be positive. Requires unit.")),
	mcp.WithString("unit", mcp.Description("Load unit"), mcp.Enum(string(routine.Kilograms), string(routine.Pounds))),
	mcp.WithNumber("rest_time", mcp.Description("Rest after the exercise, in seconds")),
	mcp.WithNumber("repetitions", mcp.Description("Number of repetitions")),
)

var toolRemoveExercise = mcp.NewTool("remove_exercise",
	mcp.WithDescription("Remove the exercise at a zero-based position of a section. Out-of-range positions leave the routine unchanged."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
	mcp.WithString("section", mcp.Required(), mcp.Description("Section to remove from"), sectionEnum),
	mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position in the section")),
)

var toolUpdateExercise = mcp.NewTool("update_exercise",
	mcp.WithDescription("Replace the exercise at a zero-based position of the given section. Out-of-range positions leave the routine unchanged."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
	mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based position in the section")),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithString("section", mcp.Required(), mcp.Description("Section holding the exercise"), sectionEnum),
	mcp.WithNumber("weight", mcp.Description("Load amount, must be positive. Requires unit.")),
	mcp.WithString("unit", mcp.Description("Load unit"), mcp.Enum(string(routine.Kilograms), string(routine.Pounds))),
	mcp.WithNumber("rest_time", mcp.Description("Rest after the exercise, in seconds")),
	mcp.WithNumber("repetitions", mcp.Description("Number of repetitions")),
)

var toolCloseSession = mcp.NewTool("close_session",
	mcp.WithDescription("Discard a session and its routine."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session id")),
)

type sessionView struct {
	Session uuid.UUID       `json:"session"`
	Routine routine.Routine `json:"routine"`
}

// --- Tool handlers ---

func (h *handlers) openSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, store := h.sessions.Open(OwnerFromContext(ctx))
	return jsonResult(sessionView{Session: id, Routine: store.Current()})
}

func (h *handlers) getRoutine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, store, errResult := h.lookup(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	return jsonResult(sessionView{Session: id, Routine: store.Current()})
}

func (h *handlers) renameRoutine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	return h.dispatch(ctx, req, routine.Rename(name))
}

func (h *handlers) addExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := exerciseFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.dispatch(ctx, req, routine.AddExercise{Exercise: e})
}

func (h *handlers) removeExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section, err := req.RequireString("section")
	if err != nil {
		return mcp.NewToolResultError("section parameter is required"), nil
	}
	s, err := routine.ParseSection(section)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index, err := requireIndex(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.dispatch(ctx, req, routine.RemoveExercise{Section: s, Index: index})
}

func (h *handlers) updateExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := requireIndex(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := exerciseFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.dispatch(ctx, req, routine.UpdateExercise{Index: index, Exercise: e})
}

func (h *handlers) closeSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("session")
	if err != nil {
		return mcp.NewToolResultError("session parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid session id"), nil
	}
	if !h.sessions.Close(id, OwnerFromContext(ctx)) {
		return mcp.NewToolResultError("session not found"), nil
	}
	return mcp.NewToolResultText("session closed"), nil
}

// dispatch applies action to the requested session after the input guard.
func (h *handlers) dispatch(ctx context.Context, req mcp.CallToolRequest, action routine.Action) (*mcp.CallToolResult, error) {
	id, store, errResult := h.lookup(ctx, req)
	if errResult != nil {
		return errResult, nil
	}
	action, err := routine.Guard(action)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	next, err := store.Dispatch(action)
	if err != nil {
		h.log.Warn("mcp dispatch rejected", "session", id, "type", action.Type(), "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sessionView{Session: id, Routine: next})
}

func (h *handlers) lookup(ctx context.Context, req mcp.CallToolRequest) (uuid.UUID, *routine.Store, *mcp.CallToolResult) {
	raw, err := req.RequireString("session")
	if err != nil {
		return uuid.Nil, nil, mcp.NewToolResultError("session parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, nil, mcp.NewToolResultError("invalid session id")
	}
	store, ok := h.sessions.Get(id, OwnerFromContext(ctx))
	if !ok {
		return uuid.Nil, nil, mcp.NewToolResultError("session not found")
	}
	return id, store, nil
}

func exerciseFromRequest(req mcp.CallToolRequest) (routine.Exercise, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return routine.Exercise{}, fmt.Errorf("name parameter is required")
	}
	section, err := req.RequireString("section")
	if err != nil {
		return routine.Exercise{}, fmt.Errorf("section parameter is required")
	}
	s, err := routine.ParseSection(section)
	if err != nil {
		return routine.Exercise{}, err
	}
	e := routine.Exercise{Name: name, Section: s}

	args := req.GetArguments()
	if amount, ok := args["weight"].(float64); ok {
		unit := req.GetString("unit", "")
		if unit == "" {
			return routine.Exercise{}, fmt.Errorf("unit is required with weight")
		}
		e.Weight = &routine.Weight{Amount: amount, Unit: routine.Unit(unit)}
	}
	if e.RestTime, err = optionalInt(args, "rest_time"); err != nil {
		return routine.Exercise{}, err
	}
	if e.Repetitions, err = optionalInt(args, "repetitions"); err != nil {
		return routine.Exercise{}, err
	}
	return e, nil
}

func requireIndex(req mcp.CallToolRequest) (int, error) {
	v, err := optionalInt(req.GetArguments(), "index")
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("index parameter is required")
	}
	return *v, nil
}

// optionalInt reads a whole number argument. JSON numbers arrive as float64.
func optionalInt(args map[string]any, key string) (*int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	f, ok := raw.(float64)
	if !ok || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
	if math.Abs(f) > math.MaxInt32 {
		return nil, fmt.Errorf("%s is out of range", key)
	}
	n := int(f)
	return &n, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
