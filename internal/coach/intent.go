package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fitbod/fitcoach/internal/gemini"
	"github.com/fitbod/fitcoach/internal/models"
)

const classificationPrompt = `
[TASK: Classify user message intent]

USER PROFILE:
%s

USER MESSAGE: "%s"

CLASSIFY into EXACTLY ONE of:
- profile_info (user wants to see their profile data)
- profile_update (user wants to update their profile)
- weight_loss_plan (user wants a weight loss plan or advice)
- muscle_gain_plan (user wants a muscle gain plan)
- general_workout_plan (user wants any workout not specific to weight loss or muscle gain)
- nutrition_advice (user wants dietary or nutrition advice)
- recovery_advice (user wants recovery or rest advice)
- progress_tracking (user wants to review or track their progress)
- general_chat (general fitness chat, default if nothing matches)

REPLY WITH ONLY THE INTENT LABEL, nothing else.`

// Classifier resolves a message to one of the chat intents.
type Classifier struct {
	gen gemini.Generator
	log *slog.Logger
}

// NewClassifier creates a Classifier backed by gen.
func NewClassifier(gen gemini.Generator, log *slog.Logger) *Classifier {
	return &Classifier{gen: gen, log: log}
}

// Classify answers a pending lose-or-gain clarification from history when it
// can, and otherwise asks the model. Anything the model says that is not a
// known label, and any model failure, resolves to general_chat.
func (c *Classifier) Classify(ctx context.Context, message string, history []models.HistoryEntry, p *models.Profile) models.Intent {
	if intent, ok := clarificationAnswer(message, history); ok {
		return intent
	}

	prompt := fmt.Sprintf(classificationPrompt, profileSummary(p), message)
	out, err := c.gen.Generate(ctx, gemini.Classification(prompt))
	if err != nil {
		c.log.Error("classifying intent", "error", err)
		return models.IntentGeneralChat
	}
	intent, ok := models.ParseIntent(strings.ToLower(strings.TrimSpace(out)))
	if !ok {
		c.log.Warn("unknown intent label", "label", out)
		return models.IntentGeneralChat
	}
	return intent
}

// clarificationAnswer maps a reply to the "lose or gain?" question onto a
// plan intent. Only the most recent assistant message is considered.
func clarificationAnswer(message string, history []models.HistoryEntry) (models.Intent, bool) {
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == models.RoleAssistant {
			last = strings.ToLower(history[i].Content)
			break
		}
	}
	if !strings.Contains(last, "?") ||
		!containsAny(last, "lose weight", "похудеть") ||
		!containsAny(last, "gain weight", "набрать") {
		return "", false
	}

	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "lose", "похуд", "сбросить", "первое", "первый", "1"):
		return models.IntentWeightLossPlan, true
	case containsAny(lower, "gain", "набр", "массу", "второе", "второй", "2"):
		return models.IntentMuscleGainPlan, true
	}
	return "", false
}

func profileSummary(p *models.Profile) string {
	if p == nil {
		return "No profile available"
	}
	v := profileView(p)
	goals := strings.Join(p.Goals, ", ")
	return fmt.Sprintf(`
- Age: %s
- Gender: %s
- Weight: %s kg
- Height: %s cm
- Fitness level: %s
- Goals: %s
- Equipment: %s
`, v.age, v.gender, v.weight, v.height, models.Str(p.FitnessLevel), goals, strings.Join(p.Equipment, ", "))
}
