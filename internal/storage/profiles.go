package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitbod/fitcoach/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, height, weight, age, gender, fitness_level, activity_level,
	goals, injuries, equipment, weekly_workouts, workout_duration, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Height, &p.Weight, &p.Age, &p.Gender, &p.FitnessLevel,
		&p.ActivityLevel, &p.Goals, &p.Injuries, &p.Equipment, &p.WeeklyWorkouts,
		&p.WorkoutDuration, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the profile row for a user, or ErrNotFound.
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := scanProfile(db.Pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the new row.
// Returns ErrNotFound when the user has no profile.
func (db *DB) UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	var goals any
	if len(upd.Goals) > 0 {
		goals = upd.Goals
	}
	p, err := scanProfile(db.Pool.QueryRow(ctx, `
		UPDATE user_profiles SET
			weight        = COALESCE($2, weight),
			height        = COALESCE($3, height),
			age           = COALESCE($4, age),
			goals         = COALESCE($5::text[], goals),
			fitness_level = COALESCE($6, fitness_level),
			updated_at    = NOW()
		WHERE id = $1
		RETURNING `+profileColumns,
		userID, upd.Weight, upd.Height, upd.Age, goals, upd.FitnessLevel))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return p, nil
}
