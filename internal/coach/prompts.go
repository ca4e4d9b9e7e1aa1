package coach

import (
	"fmt"
	"strings"

	"github.com/fitbod/fitcoach/internal/models"
	"github.com/fitbod/fitcoach/internal/nutrition"
)

// DefaultSystemPrompt instructs the conversational model.
const DefaultSystemPrompt = `You are an AI fitness coach and personal assistant. Be smart, friendly and context-aware.

CORE RULES:
1. Keep all responses SHORT and CONCISE - max 250 words
2. Be friendly, warm, and encouraging
3. Use appropriate emojis to make responses engaging
4. Give specific, actionable advice
5. NEVER return JSON code blocks or technical formats
6. Focus only on fitness and health

FORMAT RULES:
- Use conversational, casual tone
- Add 1-2 emojis maximum per response
- Avoid long lists of information
- Break text into small, readable chunks
- Use **bold** for important points only (sparingly!)
- Be brief but helpful

RESPONSE STRUCTURE:
- Greet user if appropriate
- Answer their question directly
- End with a brief encouragement

Make users feel motivated and supported!`

// WorkoutSystemPrompt instructs the workout model.
const WorkoutSystemPrompt = `You are creating a personalized workout suggestion.
Keep it BRIEF and CONVERSATIONAL:

1. Suggest only 2-3 exercises maximum
2. Do NOT use JSON or code blocks
3. Keep response under 200 words
4. Be friendly and encouraging
5. Use simple language and explanations
6. Add 1-2 emojis maximum

FORMAT AS:
"[Emoji] Here's a quick [type] exercise you can try:

• [Exercise 1]: Brief description
• [Exercise 2]: Brief description

Let me know if you'd like to try it!"

NO OTHER TEXT ALLOWED.`

const genericInstruction = " [INSTRUCTIONS: Keep your response brief, friendly and conversational. Include SPECIFIC numbers and recommendations when possible. Keep total response under 250 words. Use emoji where appropriate.]"

// PromptKind names the template a prompt was built from.
type PromptKind int

const (
	PromptGeneric PromptKind = iota
	PromptClarify
	PromptSleepNutrition
	PromptLossPlan
	PromptGainPlan
	PromptLossAdvice
	PromptGainAdvice
	PromptWorkoutAdvice
	PromptNutritionAdvice
	PromptRecoveryAdvice
)

// Prompt is an enriched model input.
type Prompt struct {
	Text string
	Kind PromptKind
}

// Goal reports which calorie band the prompt's template is about.
func (p Prompt) Goal() (nutrition.Goal, bool) {
	switch p.Kind {
	case PromptLossPlan, PromptLossAdvice:
		return nutrition.Lose, true
	case PromptGainPlan, PromptGainAdvice:
		return nutrition.Gain, true
	}
	return nutrition.Maintain, false
}

// hasContradictoryGoals reports a message asking to both lose and gain.
func hasContradictoryGoals(lower string) bool {
	if strings.Contains(lower, "lose") && strings.Contains(lower, "gain") {
		return true
	}
	return strings.Contains(lower, "похуд") &&
		(strings.Contains(lower, "набр") || strings.Contains(lower, "масс"))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// BuildPrompt enriches message for the model. Message-level overrides are
// checked in order before the per-intent templates: contradictory goals,
// sleep with nutrition, an explicit weight-loss plan, an explicit
// weight-gain plan. targets may be nil.
func BuildPrompt(message string, intent models.Intent, p *models.Profile, targets *nutrition.Targets) Prompt {
	lower := strings.ToLower(message)
	v := profileView(p)

	switch {
	case hasContradictoryGoals(lower):
		return Prompt{Kind: PromptClarify, Text: fmt.Sprintf(`[TASK: Ask clarifying question about contradictory goals]
USER PROFILE:
%s

INSTRUCTIONS:
1. The user requested contradictory goals (lose AND gain weight)
2. DIRECTLY ASK the user which goal they actually want to achieve
3. Format as a DIRECT QUESTION, not as advice
4. Keep it very friendly and casual
5. Offer exactly TWO clear options (lose weight OR gain weight)
6. Use only 1-2 sentences maximum
7. Use appropriate emoji
8. DO NOT provide any advice yet - just ask for clarification
9. Make clear you're waiting for their choice

USER MESSAGE: %s`, v.body(), message)}

	case strings.Contains(lower, "sleep") && containsAny(lower, "food", "nutrition", "diet", "meal", "eat"):
		return Prompt{Kind: PromptSleepNutrition, Text: fmt.Sprintf(`[TASK: Provide personalized sleep and nutrition advice]
USER PROFILE:
%s
- Fitness Level: %s
- Goals: %s

INSTRUCTIONS:
1. Give specific, actionable advice on BOTH sleep and nutrition
2. Split your response into TWO clear sections: Sleep and Nutrition
3. For sleep: Include optimal hours, routine tips, and quality improvement
4. For nutrition: Include specific macros, meal timing, and 2-3 food examples
5. Keep response under 250 words but make it DETAILED and SPECIFIC
6. Be friendly and supportive
7. Use appropriate emojis to organize information
8. Answer "I want to lose weight" if their message is unclear about goals

USER MESSAGE: %s`, v.body(), v.fitnessLevel, v.goals, message)}

	case containsAny(lower, "lose weight", "weight loss") && containsAny(lower, "plan", "make me"):
		return Prompt{Kind: PromptLossPlan, Text: fmt.Sprintf(`[TASK: Provide practical weight loss plan]
USER PROFILE:
%s
- Fitness Level: %s%s

INSTRUCTIONS:
1. Create a PRACTICAL daily plan with specific time-based recommendations
2. Include precise calorie target and macros based on their stats
3. Suggest 3 specific meals with actual portions (breakfast, lunch, dinner)
4. Add 1-2 snack ideas with timing
5. Include hydration guidelines with specific amounts
6. Keep response under 250 words but make it DETAILED and SPECIFIC
7. Use emojis to organize information clearly
8. Be friendly and encouraging

USER MESSAGE: %s`, v.body(), v.fitnessLevel, targetLines(targets, nutrition.Lose), message)}

	case containsAny(lower, "gain weight", "weight gain", "bulk") && containsAny(lower, "plan", "make me"):
		return Prompt{Kind: PromptGainPlan, Text: fmt.Sprintf(`[TASK: Provide practical weight gain plan]
USER PROFILE:
%s
- Fitness Level: %s%s

INSTRUCTIONS:
1. Create a PRACTICAL daily plan with specific time-based recommendations
2. Include precise calorie surplus target and macros based on their stats
3. Suggest 3 specific calorie-dense meals with actual portions
4. Add 2-3 high-calorie snack ideas with timing
5. Include protein timing guidelines
6. Keep response under 250 words but make it DETAILED and SPECIFIC
7. Use emojis to organize information clearly
8. Be friendly and encouraging

USER MESSAGE: %s`, v.body(), v.fitnessLevel, targetLines(targets, nutrition.Gain), message)}
	}

	switch intent {
	case models.IntentWeightLossPlan:
		return Prompt{Kind: PromptLossAdvice, Text: fmt.Sprintf(`[TASK: Provide practical weight loss advice]
USER PROFILE:
%s
- Fitness Level: %s%s

INSTRUCTIONS:
1. Give 5 specific, actionable weight loss tips
2. Include one daily meal example with exact portions
3. Include exact calorie target based on their stats
4. Include protein, fat and carb targets in grams
5. Keep response under 250 words but make it SPECIFIC
6. Use simple language with specific numbers and measures
7. Use emojis to organize information clearly

USER MESSAGE: %s`, v.body(), v.fitnessLevel, targetLines(targets, nutrition.Lose), message)}

	case models.IntentMuscleGainPlan:
		return Prompt{Kind: PromptGainAdvice, Text: fmt.Sprintf(`[TASK: Provide practical muscle gain advice]
USER PROFILE:
%s
- Fitness Level: %s%s

INSTRUCTIONS:
1. Give 5 specific, actionable muscle gain tips
2. Include one daily meal example with exact portions
3. Include exact calorie surplus target based on their stats
4. Include protein, fat and carb targets in grams
5. Keep response under 250 words but make it SPECIFIC
6. Use simple language with specific numbers and measures
7. Use emojis to organize information clearly

USER MESSAGE: %s`, v.body(), v.fitnessLevel, targetLines(targets, nutrition.Gain), message)}

	case models.IntentGeneralWorkoutPlan:
		return Prompt{Kind: PromptWorkoutAdvice, Text: fmt.Sprintf(`[TASK: Provide specific fitness advice]
USER PROFILE:
%s
- Fitness Level: %s

INSTRUCTIONS:
1. Give 5 specific, actionable fitness tips
2. Keep your response brief but SPECIFIC
3. Include one practical tip they can implement TODAY
4. Keep response under 250 words
5. Use simple language with specific examples
6. Use emojis to organize information clearly

USER MESSAGE: %s`, v.body(), v.fitnessLevel, message)}

	case models.IntentNutritionAdvice:
		return Prompt{Kind: PromptNutritionAdvice, Text: fmt.Sprintf(`[TASK: Provide specific nutrition advice]
USER PROFILE:
%s
- Goals: %s

INSTRUCTIONS:
1. Give specific nutrition advice with EXACT numbers (calories, macros)
2. Include one daily meal plan example with SPECIFIC foods and portions
3. Include meal timing recommendations
4. Keep response under 250 words but make it DETAILED
5. Use simple language with specific measures
6. Use emojis to organize information clearly

USER MESSAGE: %s`, v.body(), v.goals, message)}

	case models.IntentRecoveryAdvice:
		return Prompt{Kind: PromptRecoveryAdvice, Text: fmt.Sprintf(`[TASK: Provide specific recovery advice]
USER PROFILE:
%s
- Fitness Level: %s

INSTRUCTIONS:
1. Give 5 specific recovery tips with EXACT recommendations
2. Include specific sleep guidelines (hours, timing)
3. Include one practical stretching or mobility exercise
4. Keep response under 250 words but make it DETAILED
5. Use simple language with specific examples
6. Use emojis to organize information clearly

USER MESSAGE: %s`, v.body(), v.fitnessLevel, message)}
	}

	return Prompt{Kind: PromptGeneric, Text: message + genericInstruction}
}

// view holds profile attributes rendered with their template fallbacks.
type view struct {
	height, weight, gender, age string
	fitnessLevel, goals         string
}

func profileView(p *models.Profile) view {
	v := view{height: "?", weight: "?", gender: "?", age: "?", fitnessLevel: "Beginner", goals: "General fitness"}
	if p == nil {
		return v
	}
	if p.Height != nil && *p.Height != 0 {
		v.height = formatNumber(*p.Height)
	}
	if p.Weight != nil && *p.Weight != 0 {
		v.weight = formatNumber(*p.Weight)
	}
	if g := models.Str(p.Gender); g != "" {
		v.gender = g
	}
	if p.Age != nil && *p.Age != 0 {
		v.age = fmt.Sprint(*p.Age)
	}
	if f := models.Str(p.FitnessLevel); f != "" {
		v.fitnessLevel = f
	}
	if len(p.Goals) > 0 {
		v.goals = strings.Join(p.Goals, ", ")
	}
	return v
}

func (v view) body() string {
	return fmt.Sprintf("- Height: %s cm\n- Weight: %s kg\n- Gender: %s\n- Age: %s", v.height, v.weight, v.gender, v.age)
}

// targetLines renders computed targets as extra profile lines so the model
// quotes the same numbers the calculator does.
func targetLines(t *nutrition.Targets, goal nutrition.Goal) string {
	if t == nil {
		return ""
	}
	calories := t.CaloriesForLoss
	if goal == nutrition.Gain {
		calories = t.CaloriesForGain
	}
	return fmt.Sprintf("\n- Daily calorie target: %d kcal (maintenance %d kcal)\n- Daily macros: %dg protein, %dg fat, %dg carbs",
		calories, t.TDEE, t.ProteinTarget, t.FatTarget, t.CarbsTarget)
}
