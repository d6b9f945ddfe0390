package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/platform/completion"
	"github.com/macrofit/macrofit-backend/internal/types"
)

// FeedbackParser turns free-form plan feedback into a structured
// FeedbackAdjustment using the completion service.
type FeedbackParser interface {
	Parse(ctx context.Context, feedback string, currentPlan *types.NutritionPlan) (*types.FeedbackAdjustment, error)
}

type feedbackParser struct {
	log    *logger.Logger
	client completion.Client
}

func NewFeedbackParser(log *logger.Logger, client completion.Client) FeedbackParser {
	return &feedbackParser{
		log:    log.With("service", "FeedbackParser"),
		client: client,
	}
}

var feedbackSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"substitutions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"from":   map[string]any{"type": "string"},
					"to":     map[string]any{"type": "string"},
					"reason": map[string]any{"type": "string"},
				},
				"required": []string{"from", "to", "reason"},
			},
		},
		"volumeAdjustments":    stringArraySchema(),
		"intensityAdjustments": stringArraySchema(),
		"scheduleChanges":      stringArraySchema(),
		"restPeriodChanges":    stringArraySchema(),
		"equipmentLimitations": stringArraySchema(),
		"painConcerns": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"area":           map[string]any{"type": "string"},
					"exercise":       map[string]any{"type": "string"},
					"severity":       map[string]any{"type": "string"},
					"recommendation": map[string]any{"type": "string"},
				},
				"required": []string{"area", "exercise", "severity", "recommendation"},
			},
		},
		"generalFeedback": map[string]any{"type": "string"},
	},
	"required": []string{
		"substitutions", "volumeAdjustments", "intensityAdjustments",
		"scheduleChanges", "restPeriodChanges", "equipmentLimitations",
		"painConcerns", "generalFeedback",
	},
}

func stringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func (fp *feedbackParser) Parse(ctx context.Context, feedback string, currentPlan *types.NutritionPlan) (*types.FeedbackAdjustment, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, apierr.Validationf(apierr.CodeInvalidInput, "feedback must not be empty")
	}

	prompt := promptFor(fp.log, "feedback_parse")
	userPrompt := renderPrompt(prompt.User, map[string]string{
		"plan_context": planContext(currentPlan),
		"feedback":     feedback,
	})

	obj, err := fp.client.GenerateJSON(ctx, prompt.System, userPrompt, "feedback_adjustment", feedbackSchema)
	if err != nil {
		if apierr.Is(err, apierr.KindProcessing) {
			return nil, apierr.Processing(apierr.CodeFeedbackParseFailed,
				fmt.Errorf("feedback unparsable after retries: %w", err))
		}
		return nil, err
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, apierr.Processing(apierr.CodeFeedbackParseFailed, err)
	}
	var adj types.FeedbackAdjustment
	if err := json.Unmarshal(raw, &adj); err != nil {
		return nil, apierr.Processing(apierr.CodeFeedbackParseFailed,
			fmt.Errorf("feedback adjustment shape mismatch: %w", err))
	}
	adj.Normalize()

	fp.log.Info("feedback parsed",
		"substitutions", len(adj.Substitutions),
		"pain_concerns", len(adj.PainConcerns),
	)
	return &adj, nil
}

// planContext renders the current plan's entries as a compact list the model
// can match feedback against. A nil plan yields an empty context.
func planContext(plan *types.NutritionPlan) string {
	if plan == nil || len(plan.Meals) == 0 {
		return "(no current plan)"
	}
	var meals []types.MealEntry
	if err := json.Unmarshal(plan.Meals, &meals); err != nil {
		return "(no current plan)"
	}
	var b strings.Builder
	for _, m := range meals {
		fmt.Fprintf(&b, "- %s (%s): %d kcal, %dg protein, %dg carbs, %dg fat\n",
			m.Name, m.Category, m.Calories, m.ProteinG, m.CarbsG, m.FatG)
	}
	return b.String()
}
