package mcp

import (
	"context"

	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	RecentMessages(ctx context.Context, userID uuid.UUID, chatID string, limit int) ([]models.ChatMessageRow, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
