package practice

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SessionInput is a practice session as submitted by a client.
// PracticedAt defaults to the time of logging; ID lets uploaders retry safely.
type SessionInput struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	PoseName        string     `json:"pose_name" validate:"required,max=100"`
	AverageAccuracy *float64   `json:"average_accuracy" validate:"required,gte=0,lte=100"`
	DurationSeconds int        `json:"duration_seconds" validate:"gte=0,lte=86400"`
	PracticedAt     *time.Time `json:"practiced_at,omitempty"`
}

// ProfileInput is a profile update. Absent fields clear the stored value.
type ProfileInput struct {
	Bio             *string  `json:"bio" validate:"omitempty,max=1000"`
	Age             *int     `json:"age" validate:"omitempty,gte=0,lte=150"`
	Gender          *string  `json:"gender" validate:"omitempty,max=50"`
	HeightCm        *float64 `json:"height_cm" validate:"omitempty,gt=0,lte=300"`
	WeightKg        *float64 `json:"weight_kg" validate:"omitempty,gt=0,lte=500"`
	ExperienceLevel string   `json:"experience_level" validate:"omitempty,level"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Fields, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("level", func(fl validator.FieldLevel) bool {
			_, err := catalog.ParseDifficulty(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		msg := fe.Field() + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out.Fields = append(out.Fields, msg)
	}
	return out
}

// Validate checks the input against its field rules. The pose name is
// checked after trimming, so a blank name is missing.
func (in SessionInput) Validate() error {
	in.PoseName = strings.TrimSpace(in.PoseName)
	return validateStruct(in)
}

// Validate checks the input against its field rules.
func (in ProfileInput) Validate() error {
	return validateStruct(in)
}

func (in SessionInput) toSession(userID int, now time.Time) models.PracticeSession {
	s := models.PracticeSession{
		ID:              uuid.New(),
		UserID:          userID,
		PoseName:        strings.TrimSpace(in.PoseName),
		AverageAccuracy: *in.AverageAccuracy,
		DurationSeconds: in.DurationSeconds,
		PracticedAt:     now,
	}
	if in.ID != nil {
		s.ID = *in.ID
	}
	if in.PracticedAt != nil {
		s.PracticedAt = *in.PracticedAt
	}
	return s
}

func (in ProfileInput) toProfile() models.Profile {
	p := models.Profile{
		Bio:      in.Bio,
		Age:      in.Age,
		Gender:   in.Gender,
		HeightCm: in.HeightCm,
		WeightKg: in.WeightKg,
	}
	if level, err := catalog.ParseDifficulty(in.ExperienceLevel); err == nil {
		p.ExperienceLevel = &level
	}
	return p
}
