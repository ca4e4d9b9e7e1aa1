package gemini

import (
	"github.com/fitbod/fitcoach/internal/models"
	"google.golang.org/genai"
)

// BrevityInstruction is appended to the last user turn of conversational calls.
const BrevityInstruction = "\n\n[IMPORTANT: Keep your response brief, friendly and under 250 words. Do NOT provide JSON or code blocks.]"

// StopSequences suppress list-preamble phrasing.
var StopSequences = []string{"Remember:", "Note:", "Here are", "First,"}

// Request is one generateContent call.
type Request struct {
	Contents        []*genai.Content
	Temperature     float32
	MaxOutputTokens int32
	StopSequences   []string
}

func (r Request) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(r.Temperature),
		MaxOutputTokens: r.MaxOutputTokens,
		StopSequences:   r.StopSequences,
	}
}

// Classification builds the low-temperature single-label call.
func Classification(prompt string) Request {
	return Request{
		Contents:        []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		Temperature:     0.1,
		MaxOutputTokens: 10,
	}
}

// Conversation builds a chat call. The API has no system role, so
// instructions travel as a leading user turn.
func Conversation(instructions string, history []models.HistoryEntry, message string) Request {
	contents := make([]*genai.Content, 0, len(history)+2)
	contents = append(contents, genai.NewContentFromText("[Instructions for AI assistant]: "+instructions, genai.RoleUser))
	for _, h := range history {
		contents = append(contents, genai.NewContentFromText(h.Content, role(h.Role)))
	}
	contents = append(contents, genai.NewContentFromText(message+BrevityInstruction, genai.RoleUser))
	return Request{
		Contents:        contents,
		Temperature:     0.7,
		MaxOutputTokens: 500,
		StopSequences:   StopSequences,
	}
}

// Workout builds a workout generation call. History is not sent.
func Workout(instructions, message string) Request {
	return Request{
		Contents: []*genai.Content{
			genai.NewContentFromText("[Instructions for AI workout generator]: "+instructions, genai.RoleUser),
			genai.NewContentFromText(message, genai.RoleUser),
		},
		Temperature:     0.7,
		MaxOutputTokens: 1000,
		StopSequences:   StopSequences,
	}
}

func role(r string) genai.Role {
	if r == models.RoleUser {
		return genai.RoleUser
	}
	return genai.RoleModel
}
