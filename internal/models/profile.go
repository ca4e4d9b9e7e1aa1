package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is a row of user_profiles. Every attribute is optional.
type Profile struct {
	ID              uuid.UUID  `json:"id"`
	Height          *float64   `json:"height"`
	Weight          *float64   `json:"weight"`
	Age             *int       `json:"age"`
	Gender          *string    `json:"gender"`
	FitnessLevel    *string    `json:"fitness_level"`
	ActivityLevel   *string    `json:"activity_level"`
	Goals           []string   `json:"goals"`
	Injuries        []string   `json:"injuries"`
	Equipment       []string   `json:"equipment"`
	WeeklyWorkouts  *int       `json:"weekly_workouts"`
	WorkoutDuration *int       `json:"workout_duration"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Str dereferences an optional string, returning "" for nil.
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
