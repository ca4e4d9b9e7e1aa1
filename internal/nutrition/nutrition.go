// Package nutrition derives daily energy and macro targets from a user profile.
package nutrition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitbod/fitcoach/internal/lang"
	"github.com/fitbod/fitcoach/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// ErrProfileNotFound is returned when targets are requested without a profile.
var ErrProfileNotFound = errors.New("Profile not found. Please complete your profile setup.")

// Activity levels, lowest to highest.
const (
	Sedentary   = "sedentary"
	Light       = "light"
	Moderate    = "moderate"
	VeryActive  = "very_active"
	ExtraActive = "extra_active"
)

var multipliers = map[string]decimal.Decimal{
	Sedentary:   decimal.RequireFromString("1.2"),
	Light:       decimal.RequireFromString("1.375"),
	Moderate:    decimal.RequireFromString("1.55"),
	VeryActive:  decimal.RequireFromString("1.725"),
	ExtraActive: decimal.RequireFromString("1.9"),
}

// Profile defaults applied to missing or zero attributes.
const (
	DefaultWeight          = 70
	DefaultHeight          = 170
	DefaultAge             = 30
	DefaultGender          = "male"
	DefaultActivityLevel   = Moderate
	DefaultFitnessLevel    = "intermediate"
	DefaultWeeklyWorkouts  = 3
	DefaultWorkoutDuration = 45
)

// Targets is the derived nutrition view of a profile. Never persisted.
type Targets struct {
	Weight          float64  `json:"weight"`
	Height          float64  `json:"height"`
	Age             int      `json:"age"`
	Gender          string   `json:"gender"`
	ActivityLevel   string   `json:"activity_level"`
	FitnessLevel    string   `json:"fitness_level"`
	Goals           []string `json:"goals"`
	Injuries        []string `json:"injuries"`
	Equipment       []string `json:"equipment"`
	WeeklyWorkouts  int      `json:"weekly_workouts"`
	WorkoutDuration int      `json:"workout_duration"`

	BMR                     float64 `json:"bmr"`
	TDEE                    int64   `json:"tdee"`
	CaloriesForLoss         int64   `json:"calories_for_loss"`
	CaloriesForGain         int64   `json:"calories_for_gain"`
	ProteinTarget           int64   `json:"protein_target"`
	FatTarget               int64   `json:"fat_target"`
	CarbsTarget             int64   `json:"carbs_target"`
	ActivityMultiplier      float64 `json:"activity_multiplier"`
	CalculatedActivityLevel string  `json:"calculated_activity_level"`
}

// ActivityLevelFor maps a weekly workout count onto the activity ladder.
func ActivityLevelFor(weeklyWorkouts int) (string, decimal.Decimal) {
	var level string
	switch {
	case weeklyWorkouts <= 1:
		level = Sedentary
	case weeklyWorkouts <= 3:
		level = Light
	case weeklyWorkouts <= 5:
		level = Moderate
	case weeklyWorkouts <= 7:
		level = VeryActive
	default:
		level = ExtraActive
	}
	return level, multipliers[level]
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal.
func BMR(weight, height decimal.Decimal, age int, gender string) decimal.Decimal {
	bmr := weight.Mul(decimal.NewFromInt(10)).
		Add(height.Mul(decimal.RequireFromString("6.25"))).
		Sub(decimal.NewFromInt(int64(5 * age)))
	if gender == "male" {
		return bmr.Add(decimal.NewFromInt(5))
	}
	return bmr.Sub(decimal.NewFromInt(161))
}

// Calculate derives targets for p. A nil profile yields ErrProfileNotFound.
func Calculate(p *models.Profile) (*Targets, error) {
	if p == nil {
		return nil, ErrProfileNotFound
	}

	t := &Targets{
		Weight:          DefaultWeight,
		Height:          DefaultHeight,
		Age:             DefaultAge,
		Gender:          DefaultGender,
		ActivityLevel:   DefaultActivityLevel,
		FitnessLevel:    DefaultFitnessLevel,
		Goals:           nonNil(p.Goals),
		Injuries:        nonNil(p.Injuries),
		Equipment:       nonNil(p.Equipment),
		WeeklyWorkouts:  DefaultWeeklyWorkouts,
		WorkoutDuration: DefaultWorkoutDuration,
	}
	if p.Weight != nil && *p.Weight != 0 {
		t.Weight = *p.Weight
	}
	if p.Height != nil && *p.Height != 0 {
		t.Height = *p.Height
	}
	if p.Age != nil && *p.Age != 0 {
		t.Age = *p.Age
	}
	if g := models.Str(p.Gender); g != "" {
		t.Gender = g
	}
	if a := models.Str(p.ActivityLevel); a != "" {
		t.ActivityLevel = a
	}
	if f := models.Str(p.FitnessLevel); f != "" {
		t.FitnessLevel = f
	}
	if p.WeeklyWorkouts != nil && *p.WeeklyWorkouts != 0 {
		t.WeeklyWorkouts = *p.WeeklyWorkouts
	}
	if p.WorkoutDuration != nil && *p.WorkoutDuration != 0 {
		t.WorkoutDuration = *p.WorkoutDuration
	}

	weight := decimal.NewFromFloat(t.Weight)
	bmr := BMR(weight, decimal.NewFromFloat(t.Height), t.Age, t.Gender)

	level, mult := ActivityLevelFor(t.WeeklyWorkouts)
	tdee := round(bmr.Mul(mult))

	protein := round(weight.Mul(proteinPerKg(t.FitnessLevel)))
	fat := round(tdee.Mul(decimal.RequireFromString("0.25")).Div(decimal.NewFromInt(9)))
	carbs := round(tdee.
		Sub(protein.Mul(decimal.NewFromInt(4))).
		Sub(fat.Mul(decimal.NewFromInt(9))).
		Div(decimal.NewFromInt(4)))

	t.BMR = bmr.InexactFloat64()
	t.TDEE = tdee.IntPart()
	t.CaloriesForLoss = t.TDEE - 500
	t.CaloriesForGain = t.TDEE + 500
	t.ProteinTarget = protein.IntPart()
	t.FatTarget = fat.IntPart()
	t.CarbsTarget = carbs.IntPart()
	t.ActivityMultiplier = mult.InexactFloat64()
	t.CalculatedActivityLevel = level
	return t, nil
}

func proteinPerKg(fitnessLevel string) decimal.Decimal {
	switch fitnessLevel {
	case "beginner":
		return decimal.RequireFromString("1.6")
	case "intermediate":
		return decimal.RequireFromString("1.8")
	}
	return decimal.NewFromInt(2)
}

// round rounds half up toward positive infinity.
func round(d decimal.Decimal) decimal.Decimal {
	return d.Add(decimal.RequireFromString("0.5")).Floor()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Goal selects which calorie band a summary quotes.
type Goal int

const (
	Maintain Goal = iota
	Lose
	Gain
)

// GoalFor picks the band a message is asking about. Russian messages are
// matched on Russian stems.
func GoalFor(message string, tag language.Tag) Goal {
	lower := strings.ToLower(message)
	if tag == lang.Russian {
		switch {
		case strings.Contains(lower, "похуд") || strings.Contains(lower, "снизить вес"):
			return Lose
		case strings.Contains(lower, "набрать") || strings.Contains(lower, "масс"):
			return Gain
		}
		return Maintain
	}
	switch {
	case strings.Contains(lower, "lose weight"):
		return Lose
	case strings.Contains(lower, "gain"):
		return Gain
	}
	return Maintain
}

// Summary renders the targets for goal as one line. Russian gets a Russian
// sentence; every other language gets English.
func (t *Targets) Summary(tag language.Tag, goal Goal) string {
	if tag == lang.Russian {
		switch goal {
		case Lose:
			return fmt.Sprintf("Ваши дневные цели: **%d** ккал, **%dг** белка, **%dг** жира, **%dг** углеводов. __Начните отслеживать в MyFitnessPal__.",
				t.CaloriesForLoss, t.ProteinTarget, t.FatTarget, t.CarbsTarget)
		case Gain:
			return fmt.Sprintf("Ваши дневные цели: **%d** ккал, **%dг** белка, **%dг** жира, **%dг** углеводов. __Начните отслеживать в MyFitnessPal__.",
				t.CaloriesForGain, t.ProteinTarget, t.FatTarget, t.CarbsTarget)
		}
		return fmt.Sprintf("Ваша поддерживающая калорийность: **%d** ккал. Потребляйте **%dг** белка, **%dг** жира, **%dг** углеводов. __Отслеживайте свои приемы пищи__.",
			t.TDEE, t.ProteinTarget, t.FatTarget, t.CarbsTarget)
	}

	switch goal {
	case Lose:
		return fmt.Sprintf("Your daily targets: **%d** kcal, **%dg** protein, **%dg** fat, **%dg** carbs. __Start tracking with MyFitnessPal__.",
			t.CaloriesForLoss, t.ProteinTarget, t.FatTarget, t.CarbsTarget)
	case Gain:
		return fmt.Sprintf("Your daily targets: **%d** kcal, **%dg** protein, **%dg** fat, **%dg** carbs. __Start tracking with MyFitnessPal__.",
			t.CaloriesForGain, t.ProteinTarget, t.FatTarget, t.CarbsTarget)
	}
	return fmt.Sprintf("Your maintenance calories: **%d** kcal. Eat **%dg** protein, **%dg** fat, **%dg** carbs. __Track your meals__.",
		t.TDEE, t.ProteinTarget, t.FatTarget, t.CarbsTarget)
}

// Advice renders the daily targets as a one-line reply in the language of message.
func Advice(message string, p *models.Profile) string {
	if p == nil {
		return "Please complete your profile setup to get personalized nutrition advice."
	}
	t, err := Calculate(p)
	if err != nil {
		return err.Error()
	}
	tag := lang.Detect(message)
	return t.Summary(tag, GoalFor(message, tag))
}
