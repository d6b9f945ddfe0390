package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type WorkoutLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, log *types.WorkoutLog) (*types.WorkoutLog, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.WorkoutLog, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error
}

type workoutLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkoutLogRepo(db *gorm.DB, baseLog *logger.Logger) WorkoutLogRepo {
	return &workoutLogRepo{db: db, log: baseLog.With("repo", "WorkoutLogRepo")}
}

func (wr *workoutLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.WorkoutLog) (*types.WorkoutLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (wr *workoutLogRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.WorkoutLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	if limit <= 0 {
		limit = 50
	}

	var results []*types.WorkoutLog
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("performed_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (wr *workoutLogRepo) DeleteByID(ctx context.Context, tx *gorm.DB, userID, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}

	res := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.WorkoutLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
