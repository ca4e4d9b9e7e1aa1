package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/fitbod/fitcoach/internal/models"
	"github.com/google/uuid"
)

// RecentMessages returns the newest limit messages of a chat in chronological order.
func (db *DB) RecentMessages(ctx context.Context, userID uuid.UUID, chatID string, limit int) ([]models.ChatMessageRow, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, chat_id, content, is_user, created_at FROM (
			SELECT id, user_id, chat_id, content, is_user, created_at
			FROM chat_messages
			WHERE user_id = $1 AND chat_id = $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`, userID, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat messages: %w", err)
	}
	defer rows.Close()

	var result []models.ChatMessageRow
	for rows.Next() {
		var m models.ChatMessageRow
		if err := rows.Scan(&m.ID, &m.UserID, &m.ChatID, &m.Content, &m.IsUser, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// InsertMessage stores one chat message. A zero ID is replaced with a new
// UUID and a zero CreatedAt with the current time.
func (db *DB) InsertMessage(ctx context.Context, m models.ChatMessageRow) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO chat_messages (id, user_id, chat_id, content, is_user, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, m.ID, m.UserID, m.ChatID, m.Content, m.IsUser, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}
	return nil
}

// DeleteChat removes every message of a chat. Returns the count deleted.
func (db *DB) DeleteChat(ctx context.Context, userID uuid.UUID, chatID string) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM chat_messages WHERE user_id = $1 AND chat_id = $2`, userID, chatID)
	if err != nil {
		return 0, fmt.Errorf("deleting chat messages: %w", err)
	}
	return tag.RowsAffected(), nil
}
