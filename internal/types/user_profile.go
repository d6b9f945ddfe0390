package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProfile stores anthropometric data. Measurements are metric at rest:
// imperial input is converted exactly once at the API boundary.
type UserProfile struct {
	gorm.Model
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"user_id"`
	WeightKg      float64   `gorm:"not null;column:weight_kg" json:"weight_kg"`
	HeightCm      float64   `gorm:"not null;column:height_cm" json:"height_cm"`
	Age           int       `gorm:"not null;column:age" json:"age"`
	Sex           string    `gorm:"not null;column:sex" json:"sex"`
	ActivityLevel string    `gorm:"not null;column:activity_level" json:"activity_level"`
	Goal          string    `gorm:"not null;column:goal" json:"goal"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "user_profile"
}

// ProfileInput is the wire shape for profile writes. Weight/height are
// interpreted per Units and stored metric.
type ProfileInput struct {
	Weight        float64     `json:"weight"`
	Height        HeightInput `json:"height"`
	Age           int         `json:"age"`
	Sex           string      `json:"sex"`
	ActivityLevel string      `json:"activityLevel"`
	Goal          string      `json:"goal"`
	Units         string      `json:"units"`
}
