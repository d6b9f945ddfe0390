package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DietaryPreference struct {
	gorm.Model
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"user_id"`
	Restrictions      datatypes.JSON `gorm:"type:jsonb;column:restrictions" json:"restrictions"`
	PreferredCuisines datatypes.JSON `gorm:"type:jsonb;column:preferred_cuisines" json:"preferred_cuisines"`
	MealsPerDay       int            `gorm:"not null;default:3;column:meals_per_day" json:"meals_per_day"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (DietaryPreference) TableName() string {
	return "dietary_preference"
}
