package coach

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/fitbod/fitcoach/internal/models"
)

// Workout timing defaults, in seconds.
const (
	defaultTimePerSet           = 45
	defaultTimePerExercise      = 180
	defaultRestBetweenSets      = 60
	defaultRestBetweenExercises = 90
	defaultSets                 = 3
)

// rawWorkout accepts targetMuscles in any shape; non-arrays are ignored.
type rawWorkout struct {
	models.Workout
	TargetMuscles json.RawMessage `json:"targetMuscles"`
}

// ExtractWorkout carves the span between the first '{' and the last '}' out
// of text and decodes it as a workout. It returns nil when there is no span,
// the JSON is invalid, the name is missing, there are no exercises, or any
// exercise lacks a name or target muscle group.
func ExtractWorkout(text string) *models.Workout {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}

	var raw rawWorkout
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil
	}
	w := raw.Workout
	if w.Name == "" || len(w.Exercises) == 0 {
		return nil
	}
	for i := range w.Exercises {
		ex := &w.Exercises[i]
		if ex.Name == "" || ex.TargetMuscleGroup == "" {
			return nil
		}
		if ex.TimePerSet == 0 {
			ex.TimePerSet = defaultTimePerSet
		}
	}

	var declared []string
	if err := json.Unmarshal(raw.TargetMuscles, &declared); err != nil {
		declared = nil
	}
	w.TargetMuscles = unionMuscles(declared, w.Exercises)

	if w.TimePerExercise == 0 {
		w.TimePerExercise = defaultTimePerExercise
	}
	if w.RestBetweenSets == 0 {
		w.RestBetweenSets = defaultRestBetweenSets
	}
	if w.RestBetweenExercises == 0 {
		w.RestBetweenExercises = defaultRestBetweenExercises
	}
	if w.TotalTime == 0 {
		w.TotalTime = totalMinutes(w)
	}
	return &w
}

func unionMuscles(declared []string, exercises []models.Exercise) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(m string) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	for _, m := range declared {
		add(m)
	}
	for _, ex := range exercises {
		add(ex.TargetMuscleGroup)
	}
	return out
}

// totalMinutes sums set time and rest per exercise plus transitions between
// exercises, rounded to whole minutes.
func totalMinutes(w models.Workout) models.FlexFloat {
	var seconds float64
	for _, ex := range w.Exercises {
		sets := int(ex.Sets)
		if sets == 0 {
			sets = defaultSets
		}
		seconds += float64(sets) * float64(ex.TimePerSet+w.RestBetweenSets)
	}
	seconds += float64(len(w.Exercises)-1) * float64(w.RestBetweenExercises)
	return models.FlexFloat(math.Floor(seconds/60 + 0.5))
}
