package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/platform/completion"
	"github.com/macrofit/macrofit-backend/internal/repos"
	"github.com/macrofit/macrofit-backend/internal/types"
)

// NutritionService is the orchestrating surface behind the nutrition routes:
// macro targets, plan generation, the version audit trail and feedback-driven
// adjustment.
type NutritionService interface {
	CalculateMacros(ctx context.Context, input types.MacroCalculationInput) (*types.MacroResult, error)
	GeneratePlan(ctx context.Context, userID uuid.UUID) (*types.NutritionPlan, error)
	GetLatestPlan(ctx context.Context, userID uuid.UUID) (*types.NutritionPlan, error)
	ListPlanVersions(ctx context.Context, userID uuid.UUID) ([]*types.NutritionPlan, error)
	AdjustPlanFromFeedback(ctx context.Context, userID uuid.UUID, feedback string, expectedVersion int) (*types.NutritionPlan, []string, error)
}

type nutritionService struct {
	log       *logger.Logger
	macros    MacroCalculator
	generator PlanGenerator
	parser    FeedbackParser
	adjuster  PlanAdjuster
	client    completion.Client
	plans     repos.NutritionPlanRepo
	aiLogs    repos.AICallLogRepo
}

func NewNutritionService(
	log *logger.Logger,
	macros MacroCalculator,
	generator PlanGenerator,
	parser FeedbackParser,
	adjuster PlanAdjuster,
	client completion.Client,
	plans repos.NutritionPlanRepo,
	aiLogs repos.AICallLogRepo,
) NutritionService {
	return &nutritionService{
		log:       log.With("service", "NutritionService"),
		macros:    macros,
		generator: generator,
		parser:    parser,
		adjuster:  adjuster,
		client:    client,
		plans:     plans,
		aiLogs:    aiLogs,
	}
}

func (ns *nutritionService) CalculateMacros(ctx context.Context, input types.MacroCalculationInput) (*types.MacroResult, error) {
	return ns.macros.Calculate(ctx, input)
}

func (ns *nutritionService) GeneratePlan(ctx context.Context, userID uuid.UUID) (*types.NutritionPlan, error) {
	draft, err := ns.generator.Generate(ctx, userID)
	ns.recordAICall(ctx, userID, nil, "plan_generation", "", err)
	if err != nil {
		return nil, err
	}

	// Regeneration stacks a new version on the audit trail instead of
	// replacing the current plan.
	latest, lErr := ns.plans.GetLatestByUserID(ctx, nil, userID)
	switch {
	case lErr == nil:
		draft.Version = latest.Version + 1
	case errors.Is(lErr, gorm.ErrRecordNotFound):
		draft.Version = 1
	default:
		return nil, lErr
	}

	saved, err := ns.plans.CreateVersion(ctx, nil, draft)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (ns *nutritionService) GetLatestPlan(ctx context.Context, userID uuid.UUID) (*types.NutritionPlan, error) {
	return ns.plans.GetLatestByUserID(ctx, nil, userID)
}

func (ns *nutritionService) ListPlanVersions(ctx context.Context, userID uuid.UUID) ([]*types.NutritionPlan, error) {
	return ns.plans.ListVersions(ctx, nil, userID)
}

func (ns *nutritionService) AdjustPlanFromFeedback(ctx context.Context, userID uuid.UUID, feedback string, expectedVersion int) (*types.NutritionPlan, []string, error) {
	if expectedVersion < 1 {
		return nil, nil, apierr.Validationf(apierr.CodeInvalidInput, "expectedVersion must be >= 1, got %d", expectedVersion)
	}

	stored, err := ns.plans.GetLatestByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apierr.Validationf(apierr.CodeInvalidInput, "no plan to adjust; generate one first")
		}
		return nil, nil, err
	}

	nextVersion, err := CheckAndBumpVersion(stored.Version, expectedVersion)
	if err != nil {
		return nil, nil, err
	}

	adjustment, err := ns.parser.Parse(ctx, feedback, stored)
	ns.recordAICall(ctx, userID, &stored.ID, "feedback_parse", feedback, err)
	if err != nil {
		return nil, nil, err
	}

	draft, skipped, err := ns.adjuster.Adjust(stored, adjustment)
	if err != nil {
		return nil, nil, err
	}
	draft.Version = nextVersion

	// The unique (user_id, version) index decides any race that slipped
	// past the version check; the loser gets the conflict from the insert.
	saved, err := ns.plans.CreateVersion(ctx, nil, draft)
	if err != nil {
		return nil, nil, err
	}
	return saved, skipped, nil
}

// recordAICall persists a best-effort audit row; a logging failure never
// fails the request.
func (ns *nutritionService) recordAICall(ctx context.Context, userID uuid.UUID, planID *uuid.UUID, callType, prompt string, callErr error) {
	entry := &types.AICallLog{
		ID:        uuid.New(),
		UserID:    &userID,
		PlanID:    planID,
		CallType:  callType,
		ModelName: ns.client.Model(),
		Prompt:    prompt,
		Success:   callErr == nil,
	}
	if callErr != nil {
		entry.Error = callErr.Error()
	}
	if _, err := ns.aiLogs.Create(ctx, nil, entry); err != nil {
		ns.log.Warn("ai call log write failed", "call_type", callType, "error", err)
	}
}
