package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/requestdata"
	"github.com/macrofit/macrofit-backend/internal/services"
	"github.com/macrofit/macrofit-backend/internal/types"
)

type NutritionHandler struct {
	nutritionService services.NutritionService
}

func NewNutritionHandler(nutritionService services.NutritionService) *NutritionHandler {
	return &NutritionHandler{nutritionService: nutritionService}
}

func (nh *NutritionHandler) CalculateMacros(c *gin.Context) {
	var req types.MacroCalculationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, errors.New("invalid request body"))
		return
	}
	result, err := nh.nutritionService.CalculateMacros(c.Request.Context(), req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, result)
}

func (nh *NutritionHandler) GeneratePlan(c *gin.Context) {
	plan, err := nh.nutritionService.GeneratePlan(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, plan)
}

func (nh *NutritionHandler) GetPlan(c *gin.Context) {
	plan, err := nh.nutritionService.GetLatestPlan(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "", errors.New("no plan on record"))
			return
		}
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, plan)
}

func (nh *NutritionHandler) ListPlanVersions(c *gin.Context) {
	versions, err := nh.nutritionService.ListPlanVersions(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

func (nh *NutritionHandler) SubmitFeedback(c *gin.Context) {
	var req struct {
		Feedback        string `json:"feedback"`
		ExpectedVersion int    `json:"expected_version"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, errors.New("invalid request body"))
		return
	}
	plan, skipped, err := nh.nutritionService.AdjustPlanFromFeedback(c.Request.Context(),
		requestdata.UserID(c.Request.Context()), req.Feedback, req.ExpectedVersion)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"plan": plan, "skipped": skipped})
}
