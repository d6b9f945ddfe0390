package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type NutritionPlanRepo interface {
	// GetLatestByUserID returns the highest-version plan for the user.
	GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.NutritionPlan, error)
	GetVersion(ctx context.Context, tx *gorm.DB, userID uuid.UUID, version int) (*types.NutritionPlan, error)
	ListVersions(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.NutritionPlan, error)

	// CreateVersion inserts a new plan row. A (user_id, version) collision
	// means a concurrent writer won the race; the caller gets a conflict
	// error and the stored state is untouched.
	CreateVersion(ctx context.Context, tx *gorm.DB, plan *types.NutritionPlan) (*types.NutritionPlan, error)
}

type nutritionPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNutritionPlanRepo(db *gorm.DB, baseLog *logger.Logger) NutritionPlanRepo {
	return &nutritionPlanRepo{db: db, log: baseLog.With("repo", "NutritionPlanRepo")}
}

func (pr *nutritionPlanRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.NutritionPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.NutritionPlan
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("version DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *nutritionPlanRepo) GetVersion(ctx context.Context, tx *gorm.DB, userID uuid.UUID, version int) (*types.NutritionPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.NutritionPlan
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND version = ?", userID, version).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *nutritionPlanRepo) ListVersions(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.NutritionPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.NutritionPlan
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("version ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *nutritionPlanRepo) CreateVersion(ctx context.Context, tx *gorm.DB, plan *types.NutritionPlan) (*types.NutritionPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(plan).Error; err != nil {
		if isUniqueViolation(err) {
			pr.log.Warn("plan version collision",
				"user_id", plan.UserID.String(),
				"version", plan.Version,
			)
			return nil, apierr.Conflict(apierr.CodeVersionConflict,
				fmt.Errorf("plan version %d already exists: %w", plan.Version, err))
		}
		return nil, err
	}
	return plan, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
