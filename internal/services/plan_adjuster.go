package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/types"
)

// PlanAdjuster applies a structured FeedbackAdjustment to a plan and produces
// the next version as a draft. Pure: no I/O, no persistence. Targets that
// match no plan entry are reported in skipped rather than silently dropped.
type PlanAdjuster interface {
	Adjust(currentPlan *types.NutritionPlan, adj *types.FeedbackAdjustment) (*types.NutritionPlan, []string, error)
}

type planAdjuster struct {
	log *logger.Logger
}

func NewPlanAdjuster(log *logger.Logger) PlanAdjuster {
	return &planAdjuster{log: log.With("service", "PlanAdjuster")}
}

func (pa *planAdjuster) Adjust(currentPlan *types.NutritionPlan, adj *types.FeedbackAdjustment) (*types.NutritionPlan, []string, error) {
	if currentPlan == nil {
		return nil, nil, apierr.Validationf(apierr.CodeInvalidInput, "no plan to adjust")
	}
	if adj == nil {
		return nil, nil, apierr.Validationf(apierr.CodeInvalidInput, "no adjustment provided")
	}

	var meals []types.MealEntry
	if len(currentPlan.Meals) > 0 {
		if err := json.Unmarshal(currentPlan.Meals, &meals); err != nil {
			return nil, nil, apierr.Processing(apierr.CodeGenerationInvalid,
				fmt.Errorf("stored plan entries unreadable: %w", err))
		}
	}

	skipped := []string{}

	// Pain concerns claim their entries first; a substitution aimed at the
	// same entry loses.
	claimed := make([]bool, len(meals))
	for _, pc := range adj.PainConcerns {
		target := strings.TrimSpace(pc.Exercise)
		if target == "" {
			continue
		}
		matched := false
		for i := range meals {
			if !entryMatches(meals[i].Name, target) {
				continue
			}
			matched = true
			claimed[i] = true
			note := fmt.Sprintf("%s pain (%s): %s", pc.Area, pc.Severity, pc.Recommendation)
			meals[i].Note = appendNote(meals[i].Note, note)
		}
		if !matched {
			skipped = append(skipped, fmt.Sprintf("pain concern: no entry matches %q", target))
		}
	}

	for _, sub := range adj.Substitutions {
		from := strings.TrimSpace(sub.From)
		if from == "" {
			continue
		}
		matched := false
		overridden := false
		for i := range meals {
			if !entryMatches(meals[i].Name, from) {
				continue
			}
			if claimed[i] {
				overridden = true
				continue
			}
			matched = true
			meals[i].Name = sub.To
			if sub.Reason != "" {
				meals[i].Note = appendNote(meals[i].Note, "substituted: "+sub.Reason)
			}
		}
		switch {
		case matched:
		case overridden:
			skipped = append(skipped, fmt.Sprintf("substitution %q -> %q: entry has a pain concern", sub.From, sub.To))
		default:
			skipped = append(skipped, fmt.Sprintf("substitution: no entry matches %q", sub.From))
		}
	}

	notes := []string{}
	notes = append(notes, prefixAll("volume", adj.VolumeAdjustments)...)
	notes = append(notes, prefixAll("intensity", adj.IntensityAdjustments)...)
	notes = append(notes, prefixAll("schedule", adj.ScheduleChanges)...)
	notes = append(notes, prefixAll("rest", adj.RestPeriodChanges)...)
	notes = append(notes, prefixAll("equipment", adj.EquipmentLimitations)...)
	if strings.TrimSpace(adj.GeneralFeedback) != "" {
		notes = append(notes, "feedback: "+adj.GeneralFeedback)
	}

	mealsJSON, err := json.Marshal(meals)
	if err != nil {
		return nil, nil, apierr.Processing(apierr.CodeGenerationInvalid, err)
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return nil, nil, apierr.Processing(apierr.CodeGenerationInvalid, err)
	}

	next := &types.NutritionPlan{
		ID:       uuid.New(),
		UserID:   currentPlan.UserID,
		Version:  currentPlan.Version + 1,
		Calories: currentPlan.Calories,
		ProteinG: currentPlan.ProteinG,
		CarbsG:   currentPlan.CarbsG,
		FatG:     currentPlan.FatG,
		Meals:    datatypes.JSON(mealsJSON),
		Notes:    datatypes.JSON(notesJSON),
	}

	pa.log.Info("plan adjusted",
		"user_id", currentPlan.UserID.String(),
		"from_version", currentPlan.Version,
		"skipped", len(skipped),
	)
	return next, skipped, nil
}

// entryMatches reports whether target refers to the named entry:
// case-insensitive substring in either direction.
func entryMatches(entryName, target string) bool {
	name := strings.ToLower(strings.TrimSpace(entryName))
	t := strings.ToLower(strings.TrimSpace(target))
	if name == "" || t == "" {
		return false
	}
	return strings.Contains(name, t) || strings.Contains(t, name)
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

func prefixAll(prefix string, items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		out = append(out, prefix+": "+item)
	}
	return out
}
