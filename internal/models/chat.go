package models

// History roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HistoryEntry is one role-tagged turn of conversation history.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intent is the classified purpose of a chat message.
type Intent string

const (
	IntentProfileInfo        Intent = "profile_info"
	IntentProfileUpdate      Intent = "profile_update"
	IntentWeightLossPlan     Intent = "weight_loss_plan"
	IntentMuscleGainPlan     Intent = "muscle_gain_plan"
	IntentGeneralWorkoutPlan Intent = "general_workout_plan"
	IntentNutritionAdvice    Intent = "nutrition_advice"
	IntentRecoveryAdvice     Intent = "recovery_advice"
	IntentProgressTracking   Intent = "progress_tracking"
	IntentGeneralChat        Intent = "general_chat"

	// IntentSystem labels replies to non-chat actions such as clearing history.
	IntentSystem Intent = "system"
)

// Intents is the closed set of labels the classifier may return.
var Intents = []Intent{
	IntentProfileInfo,
	IntentProfileUpdate,
	IntentWeightLossPlan,
	IntentMuscleGainPlan,
	IntentGeneralWorkoutPlan,
	IntentNutritionAdvice,
	IntentRecoveryAdvice,
	IntentProgressTracking,
	IntentGeneralChat,
}

// ParseIntent returns the label matching s exactly.
func ParseIntent(s string) (Intent, bool) {
	for _, in := range Intents {
		if string(in) == s {
			return in, true
		}
	}
	return "", false
}

// IsPlan reports whether the intent asks for a structured plan.
func (i Intent) IsPlan() bool {
	switch i {
	case IntentWeightLossPlan, IntentMuscleGainPlan, IntentGeneralWorkoutPlan:
		return true
	}
	return false
}
