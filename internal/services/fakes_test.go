package services

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/macrofit/macrofit-backend/internal/types"
)

// fakeCompletion satisfies completion.Client without network I/O.
type fakeCompletion struct {
	jsonResp   map[string]any
	jsonErr    error
	textResp   string
	textErr    error
	jsonCalls  int
	lastSystem string
	lastUser   string
}

func (f *fakeCompletion) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.lastSystem, f.lastUser = system, user
	return f.textResp, f.textErr
}

func (f *fakeCompletion) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.jsonCalls++
	f.lastSystem, f.lastUser = system, user
	if f.jsonErr != nil {
		return nil, f.jsonErr
	}
	return f.jsonResp, nil
}

func (f *fakeCompletion) Model() string { return "fake-model" }

type fakeProfileRepo struct {
	profile *types.UserProfile
	err     error
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) (*types.UserProfile, error) {
	f.profile = profile
	return profile, nil
}

type fakePrefRepo struct {
	pref *types.DietaryPreference
	err  error
}

func (f *fakePrefRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.DietaryPreference, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.pref == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.pref, nil
}

func (f *fakePrefRepo) Upsert(ctx context.Context, tx *gorm.DB, pref *types.DietaryPreference) (*types.DietaryPreference, error) {
	f.pref = pref
	return pref, nil
}

// fakePlanRepo keeps versions in memory and enforces the unique
// (user_id, version) rule the way the database index does.
type fakePlanRepo struct {
	plans map[uuid.UUID]map[int]*types.NutritionPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: map[uuid.UUID]map[int]*types.NutritionPlan{}}
}

func (f *fakePlanRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.NutritionPlan, error) {
	versions := f.plans[userID]
	if len(versions) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	best := 0
	for v := range versions {
		if v > best {
			best = v
		}
	}
	return versions[best], nil
}

func (f *fakePlanRepo) GetVersion(ctx context.Context, tx *gorm.DB, userID uuid.UUID, version int) (*types.NutritionPlan, error) {
	if p, ok := f.plans[userID][version]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlanRepo) ListVersions(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.NutritionPlan, error) {
	versions := f.plans[userID]
	keys := make([]int, 0, len(versions))
	for v := range versions {
		keys = append(keys, v)
	}
	sort.Ints(keys)
	out := make([]*types.NutritionPlan, 0, len(keys))
	for _, v := range keys {
		out = append(out, versions[v])
	}
	return out, nil
}

func (f *fakePlanRepo) CreateVersion(ctx context.Context, tx *gorm.DB, plan *types.NutritionPlan) (*types.NutritionPlan, error) {
	if f.plans[plan.UserID] == nil {
		f.plans[plan.UserID] = map[int]*types.NutritionPlan{}
	}
	if _, exists := f.plans[plan.UserID][plan.Version]; exists {
		return nil, gorm.ErrDuplicatedKey
	}
	f.plans[plan.UserID][plan.Version] = plan
	return plan, nil
}

type fakeAICallLogRepo struct {
	entries []*types.AICallLog
}

func (f *fakeAICallLogRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.AICallLog) (*types.AICallLog, error) {
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f *fakeAICallLogRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.AICallLog, error) {
	return f.entries, nil
}
