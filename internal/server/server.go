package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fitbod/fitcoach/internal/coach"
	fitmcp "github.com/fitbod/fitcoach/internal/mcp"
	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/paywall"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ChatService runs chat requests. *coach.Service satisfies it.
type ChatService interface {
	Handle(ctx context.Context, req coach.Request) (*coach.Response, error)
}

// Store is the read side of storage the REST handlers use. *storage.DB
// satisfies it.
type Store interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	RecentMessages(ctx context.Context, userID uuid.UUID, chatID string, limit int) ([]models.ChatMessageRow, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators of a Server. A nil Paywall or MCP leaves the
// matching routes unmounted.
type Deps struct {
	Chat    ChatService
	Store   Store
	Auth    coach.Authenticator
	Paywall *paywall.Bridge
	MCP     *mcpserver.MCPServer
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	chat    ChatService
	store   Store
	auth    coach.Authenticator
	paywall *paywall.Bridge
	mcp     http.Handler
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(d Deps, log *slog.Logger) *Server {
	s := &Server{
		chat:    d.Chat,
		store:   d.Store,
		auth:    d.Auth,
		paywall: d.Paywall,
		log:     log,
		router:  chi.NewRouter(),
	}
	if d.MCP != nil {
		s.mcp = mcpserver.NewStreamableHTTPServer(d.MCP,
			mcpserver.WithStateLess(true),
			mcpserver.WithHTTPContextFunc(mcpUserContext),
		)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Chat endpoint: the pipeline authenticates and maps its own errors.
	s.router.Post("/functions/v1/chat", s.handleChat)
	s.router.Post("/api/v1/chat", s.handleChat)

	s.router.Get("/healthz", s.handleHealthz)

	// REST endpoints (bearer token required)
	s.router.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.auth, s.log))
		r.Get("/api/v1/me", s.handleMe)
		r.Get("/api/v1/profile", s.handleProfile)
		r.Get("/api/v1/nutrition", s.handleNutrition)
		r.Get("/api/v1/chats/{chatID}/messages", s.handleChatMessages)
		if s.paywall != nil {
			r.Post("/api/v1/channels/{name}", s.handleChannel)
		}
		if s.mcp != nil {
			r.Handle("/mcp", s.mcp)
		}
	})
}

// mcpUserContext carries the authenticated user into MCP tool calls.
func mcpUserContext(ctx context.Context, r *http.Request) context.Context {
	if u, ok := UserFromContext(r.Context()); ok {
		return fitmcp.WithUserID(ctx, u.ID)
	}
	return ctx
}
