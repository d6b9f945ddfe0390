package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type AICallLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.AICallLog) (*types.AICallLog, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.AICallLog, error)
}

type aiCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	return &aiCallLogRepo{db: db, log: baseLog.With("repo", "AICallLogRepo")}
}

func (ar *aiCallLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.AICallLog) (*types.AICallLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (ar *aiCallLogRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.AICallLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if limit <= 0 {
		limit = 50
	}

	var results []*types.AICallLog
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
