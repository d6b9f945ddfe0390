package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type DietaryPreferenceRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.DietaryPreference, error)
	Upsert(ctx context.Context, tx *gorm.DB, pref *types.DietaryPreference) (*types.DietaryPreference, error)
}

type dietaryPreferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDietaryPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) DietaryPreferenceRepo {
	return &dietaryPreferenceRepo{db: db, log: baseLog.With("repo", "DietaryPreferenceRepo")}
}

func (dr *dietaryPreferenceRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.DietaryPreference, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var result types.DietaryPreference
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (dr *dietaryPreferenceRepo) Upsert(ctx context.Context, tx *gorm.DB, pref *types.DietaryPreference) (*types.DietaryPreference, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"restrictions", "preferred_cuisines", "meals_per_day", "updated_at",
			}),
		}).
		Create(pref).Error; err != nil {
		return nil, err
	}
	return pref, nil
}
