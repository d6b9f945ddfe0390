package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type WorkoutLog struct {
	gorm.Model
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	PerformedAt time.Time      `gorm:"not null;column:performed_at" json:"performed_at"`
	Exercises   datatypes.JSON `gorm:"type:jsonb;column:exercises" json:"exercises"`
	Notes       string         `gorm:"column:notes" json:"notes"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (WorkoutLog) TableName() string {
	return "workout_log"
}

// ExerciseEntry is the shape serialized into WorkoutLog.Exercises.
type ExerciseEntry struct {
	Name     string  `json:"name"`
	Sets     int     `json:"sets,omitempty"`
	Reps     int     `json:"reps,omitempty"`
	WeightKg float64 `json:"weight_kg,omitempty"`
	Duration string  `json:"duration,omitempty"`
}
