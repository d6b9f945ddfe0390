package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/repos"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type WorkoutService interface {
	LogWorkout(ctx context.Context, userID uuid.UUID, performedAt time.Time, exercises []types.ExerciseEntry, notes string) (*types.WorkoutLog, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, limit int) ([]*types.WorkoutLog, error)
	DeleteWorkout(ctx context.Context, userID, id uuid.UUID) error
}

type workoutService struct {
	log      *logger.Logger
	workouts repos.WorkoutLogRepo
}

func NewWorkoutService(log *logger.Logger, workouts repos.WorkoutLogRepo) WorkoutService {
	return &workoutService{
		log:      log.With("service", "WorkoutService"),
		workouts: workouts,
	}
}

func (ws *workoutService) LogWorkout(ctx context.Context, userID uuid.UUID, performedAt time.Time, exercises []types.ExerciseEntry, notes string) (*types.WorkoutLog, error) {
	if performedAt.IsZero() {
		performedAt = time.Now()
	}
	if performedAt.After(time.Now().Add(24 * time.Hour)) {
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "performedAt is in the future")
	}
	if len(exercises) == 0 {
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "at least one exercise is required")
	}
	for i, e := range exercises {
		if e.Name == "" {
			return nil, apierr.Validationf(apierr.CodeInvalidInput, "exercise %d has no name", i)
		}
	}

	exercisesJSON, err := json.Marshal(exercises)
	if err != nil {
		return nil, err
	}

	entry := &types.WorkoutLog{
		ID:          uuid.New(),
		UserID:      userID,
		PerformedAt: performedAt,
		Exercises:   datatypes.JSON(exercisesJSON),
		Notes:       notes,
	}
	return ws.workouts.Create(ctx, nil, entry)
}

func (ws *workoutService) ListWorkouts(ctx context.Context, userID uuid.UUID, limit int) ([]*types.WorkoutLog, error) {
	return ws.workouts.ListByUserID(ctx, nil, userID, limit)
}

func (ws *workoutService) DeleteWorkout(ctx context.Context, userID, id uuid.UUID) error {
	return ws.workouts.DeleteByID(ctx, nil, userID, id)
}
