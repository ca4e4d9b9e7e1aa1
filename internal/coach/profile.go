package coach

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fitbod/fitcoach/internal/lang"
	"github.com/fitbod/fitcoach/internal/models"
)

var (
	weightPattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kg|pounds|lbs)`)
	heightPattern       = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:cm|meters|m)`)
	agePattern          = regexp.MustCompile(`(?i)(\d+)\s*(?:years|year|yo|y\.o\.|years old)`)
	goalsPattern        = regexp.MustCompile(`(?i)(lose weight|gain muscle|get stronger|improve endurance|stay fit)`)
	fitnessLevelPattern = regexp.MustCompile(`(?i)(beginner|intermediate|advanced)`)
)

const profileUpdateHint = "I couldn't update your profile. Please try again with specific values (e.g., 'weight: 75kg')."

// ExtractProfileUpdate finds weight, height, age, goals and fitness level
// statements in a message. Goals collect every match; the rest take the first.
func ExtractProfileUpdate(message string) models.ProfileUpdate {
	var u models.ProfileUpdate
	if m := weightPattern.FindStringSubmatch(message); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			u.Weight = &v
		}
	}
	if m := heightPattern.FindStringSubmatch(message); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			u.Height = &v
		}
	}
	if m := agePattern.FindStringSubmatch(message); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			u.Age = &v
		}
	}
	for _, m := range goalsPattern.FindAllStringSubmatch(message, -1) {
		u.Goals = append(u.Goals, strings.ToLower(m[1]))
	}
	if m := fitnessLevelPattern.FindStringSubmatch(message); m != nil {
		level := strings.ToLower(m[1])
		u.FitnessLevel = &level
	}
	return u
}

// ProfileUpdateReply confirms the changed fields in the language of the
// previous history message.
func ProfileUpdateReply(fields []string, previousMessage string) string {
	if len(fields) == 0 {
		return profileUpdateHint
	}
	changes := strings.Join(fields, ", ")
	if lang.Detect(previousMessage) == lang.Russian {
		return fmt.Sprintf("✨ Обновлены ваши **%s**! __Ваш профиль теперь актуален__.", changes)
	}
	return fmt.Sprintf("✨ Updated your **%s**! __Your profile is now current__.", changes)
}

// ProfileCard renders the stored profile. Always English.
func ProfileCard(p *models.Profile) string {
	if p == nil {
		return "I couldn't find your profile. Please complete your profile information."
	}
	notSet := func(s string) string {
		if s == "" {
			return "Not set"
		}
		return s
	}
	height, weight, age := "Not set", "Not set", "Not set"
	if p.Height != nil && *p.Height != 0 {
		height = fmt.Sprintf("**%s** cm", formatNumber(*p.Height))
	}
	if p.Weight != nil && *p.Weight != 0 {
		weight = fmt.Sprintf("**%s** kg", formatNumber(*p.Weight))
	}
	if p.Age != nil && *p.Age != 0 {
		age = fmt.Sprintf("**%d**", *p.Age)
	}

	var b strings.Builder
	b.WriteString("👤 **Your Profile Data:**\n\n")
	fmt.Fprintf(&b, "**Height:** %s\n", height)
	fmt.Fprintf(&b, "**Weight:** %s\n", weight)
	fmt.Fprintf(&b, "**Age:** %s\n", age)
	fmt.Fprintf(&b, "**Gender:** %s\n", notSet(models.Str(p.Gender)))
	fmt.Fprintf(&b, "**Fitness Level:** %s\n", notSet(models.Str(p.FitnessLevel)))
	fmt.Fprintf(&b, "**Goals:** %s\n\n", notSet(strings.Join(p.Goals, ", ")))
	b.WriteString("You can update this information anytime by just telling me.")
	return b.String()
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
