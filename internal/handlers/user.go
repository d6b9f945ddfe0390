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

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetProfile(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	profile, err := uh.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "", errors.New("no profile on record"))
			return
		}
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, profile)
}

func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	var req types.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, errors.New("invalid request body"))
		return
	}
	profile, err := uh.userService.UpdateProfile(c.Request.Context(), requestdata.UserID(c.Request.Context()), req)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, profile)
}

func (uh *UserHandler) GetPreferences(c *gin.Context) {
	pref, err := uh.userService.GetPreferences(c.Request.Context(), requestdata.UserID(c.Request.Context()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "", errors.New("no dietary preferences on record"))
			return
		}
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, pref)
}

func (uh *UserHandler) UpdatePreferences(c *gin.Context) {
	var req struct {
		Restrictions      []string `json:"restrictions"`
		PreferredCuisines []string `json:"preferred_cuisines"`
		MealsPerDay       int      `json:"meals_per_day"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, errors.New("invalid request body"))
		return
	}
	if req.MealsPerDay == 0 {
		req.MealsPerDay = 3
	}
	pref, err := uh.userService.UpdatePreferences(c.Request.Context(),
		requestdata.UserID(c.Request.Context()), req.Restrictions, req.PreferredCuisines, req.MealsPerDay)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, pref)
}
