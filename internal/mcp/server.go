package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/rutinas/internal/session"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const ownerKey contextKey = iota

// defaultOwner owns sessions opened over stdio, where there is no caller
// identity.
const defaultOwner = "local"

// OwnerFromContext extracts the session owner injected by the transport layer.
func OwnerFromContext(ctx context.Context) string {
	if owner, ok := ctx.Value(ownerKey).(string); ok && owner != "" {
		return owner
	}
	return defaultOwner
}

// WithOwner returns a context with the given session owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// New creates an MCP server with all tools and resources registered.
func New(sessions *session.Registry, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Rutinas", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Rutinas routine editor. Open a session, then rename the routine and add, update or remove exercises in its warmUp, main and coolDown sections. Sessions are discarded when closed."),
	)

	h := &handlers{sessions: sessions, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolOpenSession, Handler: h.openSession},
		server.ServerTool{Tool: toolGetRoutine, Handler: h.getRoutine},
		server.ServerTool{Tool: toolRenameRoutine, Handler: h.renameRoutine},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolRemoveExercise, Handler: h.removeExercise},
		server.ServerTool{Tool: toolUpdateExercise, Handler: h.updateExercise},
		server.ServerTool{Tool: toolCloseSession, Handler: h.closeSession},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resVocabulary, Handler: h.vocabulary},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	sessions *session.Registry
	log      *slog.Logger
}
