package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
	"github.com/macrofit/macrofit-backend/internal/types"
)

func profileInput(age int) types.ProfileInput {
	return types.ProfileInput{
		Weight:        70,
		Height:        types.HeightInput{Cm: 175},
		Age:           age,
		Sex:           types.SexMale,
		ActivityLevel: types.ActivityModerate,
		Goal:          types.GoalMaintain,
		Units:         types.UnitsMetric,
	}
}

func TestUpdateProfileAgeBand(t *testing.T) {
	svc := NewUserService(testLogger(t), &fakeProfileRepo{}, &fakePrefRepo{})
	userID := uuid.New()

	for _, age := range []int{13, 120} {
		profile, err := svc.UpdateProfile(context.Background(), userID, profileInput(age))
		if err != nil {
			t.Fatalf("age %d: %v", age, err)
		}
		if profile.Age != age {
			t.Errorf("stored age = %d, want %d", profile.Age, age)
		}
	}

	for _, age := range []int{0, 12, 121} {
		_, err := svc.UpdateProfile(context.Background(), userID, profileInput(age))
		if !apierr.Is(err, apierr.KindValidation) {
			t.Fatalf("age %d: expected validation error, got %v", age, err)
		}
	}
}
