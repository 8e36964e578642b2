package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/poseflow/internal/models"
	"github.com/jackc/pgx/v5"
)

// GetProfile returns the user's profile, or nil if none has been saved.
func (db *DB) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	var p models.Profile
	var level *string
	err := db.Pool.QueryRow(ctx,
		`SELECT bio, age, gender, height_cm, weight_kg, experience_level
		 FROM user_profiles WHERE user_id = $1`,
		userID).Scan(&p.Bio, &p.Age, &p.Gender, &p.HeightCm, &p.WeightKg, &level)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	p.ExperienceLevel = models.LevelFromText(level)
	return &p, nil
}

// SaveProfile inserts or replaces the user's profile.
func (db *DB) SaveProfile(ctx context.Context, userID int, p models.Profile) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, bio, age, gender, height_cm, weight_kg, experience_level)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio, age = EXCLUDED.age, gender = EXCLUDED.gender,
			height_cm = EXCLUDED.height_cm, weight_kg = EXCLUDED.weight_kg,
			experience_level = EXCLUDED.experience_level, updated_at = NOW()`,
		userID, p.Bio, p.Age, p.Gender, p.HeightCm, p.WeightKg, models.LevelText(p.ExperienceLevel))
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
