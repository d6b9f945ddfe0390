package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NutritionPlan rows are insert-only: every adjustment creates version N+1 and
// prior versions are kept as the audit trail. The unique (user_id, version)
// index is what makes the optimistic-concurrency write atomic.
type NutritionPlan struct {
	gorm.Model
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_plan_user_version;column:user_id" json:"user_id"`
	Version   int            `gorm:"not null;uniqueIndex:idx_plan_user_version;column:version" json:"version"`
	Calories  int            `gorm:"not null;column:calories" json:"calories"`
	ProteinG  int            `gorm:"not null;column:protein_g" json:"protein_g"`
	CarbsG    int            `gorm:"not null;column:carbs_g" json:"carbs_g"`
	FatG      int            `gorm:"not null;column:fat_g" json:"fat_g"`
	Meals     datatypes.JSON `gorm:"type:jsonb;not null;column:meals" json:"meals"`
	Notes     datatypes.JSON `gorm:"type:jsonb;column:notes" json:"notes"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (NutritionPlan) TableName() string {
	return "nutrition_plan"
}

// MealEntry is the shape serialized into NutritionPlan.Meals.
type MealEntry struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Calories    int    `json:"calories"`
	ProteinG    int    `json:"protein_g"`
	CarbsG      int    `json:"carbs_g"`
	FatG        int    `json:"fat_g"`
	Note        string `json:"note,omitempty"`
}

// MacroResult is the calculated daily target. Macro grams satisfy
// protein*4 + carbs*4 + fat*9 ~= calories within rounding tolerance.
type MacroResult struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
}
