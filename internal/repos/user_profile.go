package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type UserProfileRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error)
	Upsert(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) (*types.UserProfile, error)
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (pr *userProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.UserProfile
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// Upsert keeps one profile row per user. A second write for the same user
// replaces the measurements in place.
func (pr *userProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) (*types.UserProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"weight_kg", "height_cm", "age", "sex", "activity_level", "goal", "updated_at",
			}),
		}).
		Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}
