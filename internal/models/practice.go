package models

import (
	"time"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/google/uuid"
)

// User is a practitioner known to the server, keyed by login.
type User struct {
	ID          int       `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is the optional self-description a user keeps.
// Every field is optional; ExperienceLevel drives recommendations.
type Profile struct {
	Bio             *string             `json:"bio"`
	Age             *int                `json:"age"`
	Gender          *string             `json:"gender"`
	HeightCm        *float64            `json:"height_cm"`
	WeightKg        *float64            `json:"weight_kg"`
	ExperienceLevel *catalog.Difficulty `json:"experience_level"`
}

// Level returns the profile's experience level, defaulting to Beginner when
// the profile is absent or the level unset.
func (p *Profile) Level() catalog.Difficulty {
	if p == nil || p.ExperienceLevel == nil || !p.ExperienceLevel.Valid() {
		return catalog.Beginner
	}
	return *p.ExperienceLevel
}

// PracticeSession is one logged practice of a single pose.
type PracticeSession struct {
	ID              uuid.UUID `json:"id"`
	UserID          int       `json:"user_id"`
	PoseName        string    `json:"pose_name"`
	AverageAccuracy float64   `json:"average_accuracy"`
	DurationSeconds int       `json:"duration_seconds"`
	PracticedAt     time.Time `json:"practiced_at"`
}

// LevelText converts an optional level to its column value.
func LevelText(d *catalog.Difficulty) *string {
	if d == nil || !d.Valid() {
		return nil
	}
	s := d.String()
	return &s
}

// LevelFromText parses a nullable level column. Unrecognised values read as unset.
func LevelFromText(s *string) *catalog.Difficulty {
	if s == nil {
		return nil
	}
	d, err := catalog.ParseDifficulty(*s)
	if err != nil {
		return nil
	}
	return &d
}
