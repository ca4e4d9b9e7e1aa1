package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessageRow is a row of the chat_messages table.
type ChatMessageRow struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ChatID    string    `json:"chat_id"`
	Content   string    `json:"content"`
	IsUser    bool      `json:"is_user"`
	CreatedAt time.Time `json:"created_at"`
}

// Role maps the stored is_user flag to a history role.
func (r ChatMessageRow) Role() string {
	if r.IsUser {
		return RoleUser
	}
	return RoleAssistant
}

// ProfileUpdate carries the profile columns a chat message asked to change.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Weight       *float64
	Height       *float64
	Age          *int
	Goals        []string
	FitnessLevel *string
}

// Fields lists the changed columns in a stable order.
func (u ProfileUpdate) Fields() []string {
	var fields []string
	if u.Weight != nil {
		fields = append(fields, "weight")
	}
	if u.Height != nil {
		fields = append(fields, "height")
	}
	if u.Age != nil {
		fields = append(fields, "age")
	}
	if len(u.Goals) > 0 {
		fields = append(fields, "goals")
	}
	if u.FitnessLevel != nil {
		fields = append(fields, "fitness_level")
	}
	return fields
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return len(u.Fields()) == 0
}
