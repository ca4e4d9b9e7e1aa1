package coach

import (
	"regexp"
	"strings"

	"github.com/fitbod/fitcoach/internal/models"
)

const (
	// MaxHistory bounds the conversation history kept in a context.
	MaxHistory = 8
	// MaxWorkouts bounds the saved workout list.
	MaxWorkouts = 8
	// HistoryFetchLimit is how many stored messages are loaded per request.
	HistoryFetchLimit = MaxHistory * 2
)

var goalPattern = regexp.MustCompile(`(?i)goals?:?\s*(.+)`)

// ChatContext is the per-request conversation state returned to the client.
type ChatContext struct {
	MessageHistory       []models.HistoryEntry        `json:"messageHistory"`
	SavedWorkouts        []models.Workout             `json:"savedWorkouts"`
	UserProfile          *models.Profile              `json:"userProfile"`
	CurrentGoal          string                       `json:"currentGoal,omitempty"`
	MuscleLoads          map[string]models.MuscleLoad `json:"muscleLoads"`
	LastDetectedLanguage string                       `json:"lastDetectedLanguage"`
}

// NewChatContext returns an empty context.
func NewChatContext() *ChatContext {
	return &ChatContext{
		MessageHistory:       []models.HistoryEntry{},
		SavedWorkouts:        []models.Workout{},
		MuscleLoads:          map[string]models.MuscleLoad{},
		LastDetectedLanguage: "en",
	}
}

// SetHistory replaces the history with the most recent MaxHistory entries of h.
func (c *ChatContext) SetHistory(h []models.HistoryEntry) {
	if len(h) > MaxHistory {
		h = h[len(h)-MaxHistory:]
	}
	c.MessageHistory = append([]models.HistoryEntry{}, h...)
}

// AppendHistory adds one entry, dropping the oldest first when full.
func (c *ChatContext) AppendHistory(e models.HistoryEntry) {
	for len(c.MessageHistory) >= MaxHistory {
		c.MessageHistory = c.MessageHistory[1:]
	}
	c.MessageHistory = append(c.MessageHistory, e)
}

// AddWorkout saves w, dropping the oldest workout when full.
func (c *ChatContext) AddWorkout(w models.Workout) {
	c.SavedWorkouts = appendWorkout(c.SavedWorkouts, w)
}

func appendWorkout(ws []models.Workout, w models.Workout) []models.Workout {
	ws = append(ws, w)
	if len(ws) > MaxWorkouts {
		ws = ws[len(ws)-MaxWorkouts:]
	}
	return ws
}

// LastMessage returns the newest history entry's content, or "".
func (c *ChatContext) LastMessage() string {
	if len(c.MessageHistory) == 0 {
		return ""
	}
	return c.MessageHistory[len(c.MessageHistory)-1].Content
}

// Record appends a finished exchange and picks up a stated goal
// ("my goal: run 5k") from the user message.
func (c *ChatContext) Record(userMessage, reply string) {
	c.AppendHistory(models.HistoryEntry{Role: models.RoleUser, Content: userMessage})
	c.AppendHistory(models.HistoryEntry{Role: models.RoleAssistant, Content: reply})

	if strings.Contains(strings.ToLower(userMessage), "goal") {
		if m := goalPattern.FindStringSubmatch(userMessage); m != nil {
			c.CurrentGoal = strings.TrimSpace(m[1])
		}
	}
}
