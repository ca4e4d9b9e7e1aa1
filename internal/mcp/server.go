package mcp

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
// It is uuid.Nil when no user was injected.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitCoach server. Read the user's fitness profile, daily nutrition targets and coaching chat history. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetProfile, Handler: h.getProfile},
		server.ServerTool{Tool: toolCalculateNutrition, Handler: h.calculateNutrition},
		server.ServerTool{Tool: toolGetChatHistory, Handler: h.getChatHistory},
		server.ServerTool{Tool: toolDetectLanguage, Handler: h.detectLanguage},
	)

	s.AddResources(
		server.ServerResource{Resource: resProfile, Handler: h.profileResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resProfile = mcp.NewResource(
	"fitcoach://profile",
	"Fitness Profile",
	mcp.WithResourceDescription("The user's fitness profile together with the daily nutrition targets derived from it"),
	mcp.WithMIMEType("application/json"),
)
