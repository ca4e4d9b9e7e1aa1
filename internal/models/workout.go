package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Workout is a structured workout parsed from model output.
type Workout struct {
	Name                 string     `json:"name"`
	Exercises            []Exercise `json:"exercises"`
	TargetMuscles        []string   `json:"targetMuscles"`
	TimePerExercise      FlexFloat  `json:"timePerExercise"`
	RestBetweenSets      FlexFloat  `json:"restBetweenSets"`
	RestBetweenExercises FlexFloat  `json:"restBetweenExercises"`
	TotalTime            FlexFloat  `json:"totalTime"`
	Intensity            FlexFloat  `json:"intensity,omitempty"`
}

// Exercise is one entry of a workout.
type Exercise struct {
	Name              string          `json:"name"`
	TargetMuscleGroup string          `json:"targetMuscleGroup"`
	Sets              FlexInt         `json:"sets,omitempty"`
	Reps              json.RawMessage `json:"reps,omitempty"`
	TimePerSet        FlexFloat       `json:"timePerSet"`
}

// FlexInt decodes a JSON number or a string with a leading integer ("4 sets").
// Anything else decodes to zero.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexInt(int(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(leadingInt(s))
	return nil
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || (end == 0 && (s[0] == '-' || s[0] == '+'))) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// FlexFloat decodes a JSON number or a string with a leading number
// ("30 minutes"). Anything else, such as "moderate", decodes to zero.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(leadingFloat(s))
	return nil
}

func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end, dot := 0, false
scan:
	for end < len(s) {
		switch c := s[end]; {
		case c >= '0' && c <= '9':
		case c == '.' && !dot:
			dot = true
		case end == 0 && (c == '-' || c == '+'):
		default:
			break scan
		}
		end++
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return n
}

// MuscleLoad tracks recency and recovery for one muscle group.
type MuscleLoad struct {
	MuscleGroup        string    `json:"muscleGroup"`
	LastTrainedDate    time.Time `json:"lastTrainedDate"`
	RecoveryStatus     float64   `json:"recoveryStatus"`
	FrequencyLastMonth int       `json:"frequencyLastMonth"`
	Intensity          float64   `json:"intensity"`
}
