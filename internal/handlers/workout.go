package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/requestdata"
	"github.com/macrofit/macrofit-backend/internal/services"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type WorkoutHandler struct {
	workoutService services.WorkoutService
}

func NewWorkoutHandler(workoutService services.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

func (wh *WorkoutHandler) LogWorkout(c *gin.Context) {
	var req struct {
		PerformedAt time.Time             `json:"performed_at"`
		Exercises   []types.ExerciseEntry `json:"exercises"`
		Notes       string                `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, errors.New("invalid request body"))
		return
	}
	entry, err := wh.workoutService.LogWorkout(c.Request.Context(),
		requestdata.UserID(c.Request.Context()), req.PerformedAt, req.Exercises, req.Notes)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, entry)
}

func (wh *WorkoutHandler) ListWorkouts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	logs, err := wh.workoutService.ListWorkouts(c.Request.Context(), requestdata.UserID(c.Request.Context()), limit)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"workouts": logs})
}

func (wh *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, errors.New("invalid workout id"))
		return
	}
	if err := wh.workoutService.DeleteWorkout(c.Request.Context(), requestdata.UserID(c.Request.Context()), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "", errors.New("workout not found"))
			return
		}
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
