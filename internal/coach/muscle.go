package coach

import (
	"maps"
	"time"

	"github.com/fitbod/fitcoach/internal/models"
)

const defaultIntensity = 5

// UpdateMuscleLoads records a finished workout against each target muscle.
// The muscle's recovery is first brought up to now, then drops by 60 points;
// frequency grows by one and intensity follows the workout when it declares
// one. Loads are stored raw: callers render them with Recover.
func UpdateMuscleLoads(w models.Workout, loads map[string]models.MuscleLoad, now time.Time) map[string]models.MuscleLoad {
	out := maps.Clone(loads)
	if out == nil {
		out = map[string]models.MuscleLoad{}
	}
	for _, muscle := range w.TargetMuscles {
		cur, ok := out[muscle]
		if ok {
			cur = recoverLoad(cur, now)
		} else {
			cur = models.MuscleLoad{
				MuscleGroup:     muscle,
				LastTrainedDate: now,
				RecoveryStatus:  100,
				Intensity:       defaultIntensity,
			}
		}
		cur.LastTrainedDate = now
		cur.RecoveryStatus = max(0, cur.RecoveryStatus-60)
		cur.FrequencyLastMonth++
		if w.Intensity != 0 {
			cur.Intensity = float64(w.Intensity)
		}
		out[muscle] = cur
	}
	return out
}

// Recover applies linear recovery since each muscle was last trained at
// 50/intensity percent per day, capped at 100.
func Recover(loads map[string]models.MuscleLoad, now time.Time) map[string]models.MuscleLoad {
	out := make(map[string]models.MuscleLoad, len(loads))
	for muscle, load := range loads {
		out[muscle] = recoverLoad(load, now)
	}
	return out
}

func recoverLoad(load models.MuscleLoad, now time.Time) models.MuscleLoad {
	days := now.Sub(load.LastTrainedDate).Hours() / 24
	intensity := load.Intensity
	if intensity == 0 {
		intensity = defaultIntensity
	}
	load.RecoveryStatus = min(100, load.RecoveryStatus+days*(50/intensity))
	return load
}
