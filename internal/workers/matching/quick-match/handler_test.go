// internal/workers/matching/quick-match/handler_test.go
package quickmatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"school-match-workers/internal/catalog"
	apperrors "school-match-workers/internal/common/errors"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/common/validation"
	"school-match-workers/internal/matching"
	"school-match-workers/internal/models"
	"school-match-workers/internal/plans"
	"school-match-workers/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:            5 * time.Second,
		SlowMatchThreshold: time.Second,
		DefaultStrategy:    models.StrategyBalanced,
		SavePlans:          true,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createTestEngine(tb testing.TB, opts ...matching.Option) *matching.Engine {
	tb.Helper()
	engine, err := matching.NewEngine(opts...)
	require.NoError(tb, err)
	return engine
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

func ukCriteria() models.UserCriteria {
	return models.UserCriteria{
		Countries:   []string{"英国"},
		Majors:      []string{"计算机"},
		DegreeLevel: models.DegreeMaster,
		GPA:         floatPtr(3.8),
		BudgetMin:   floatPtr(200000),
		BudgetMax:   floatPtr(400000),
	}
}

func createTestCatalog() *catalog.MemoryProvider {
	school := func(id string, rank int) models.School {
		return models.School{ID: id, Name: "School " + id, Country: "英国", Location: "英国 伦敦", Ranking: intPtr(rank)}
	}
	program := func(id, schoolID, tuition string) models.Program {
		return models.Program{
			ID: id, SchoolID: schoolID, Name: "计算机科学硕士", Degree: "硕士",
			Duration: "1年", TuitionFee: tuition, Category: "计算机",
		}
	}
	return catalog.NewMemoryProvider(&catalog.Snapshot{
		Schools: []models.School{
			school("top", 5), school("mid", 60), school("low", 400),
			{ID: "us", Name: "US School", Country: "美国", Location: "美国 波士顿", Ranking: intPtr(3)},
		},
		Programs: []models.Program{
			program("p-top", "top", "350,000"),
			program("p-mid", "mid", "450,000"),
			program("p-low", "low", "600,000"),
			program("p-us", "us", "300000"),
		},
	})
}

func createTestHandler(t *testing.T, provider catalog.Provider) (*Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := createTestLogger(t)
	h := NewHandler(createTestConfig(), provider, createTestEngine(t), plans.NewStore(rdb, time.Hour, log), nil, nil, log)
	h.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return h, mr
}

type failingProvider struct {
	catalog.Provider
	err error
}

func (f failingProvider) Schools(context.Context, []string) ([]models.School, error) {
	return nil, f.err
}

func assertErrorCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_UKScenario(t *testing.T) {
	h, mr := createTestHandler(t, createTestCatalog())

	output, err := h.Execute(context.Background(), &Input{Criteria: ukCriteria()})
	require.NoError(t, err)

	require.Len(t, output.Results, 3)
	ids := []string{output.Results[0].School.ID, output.Results[1].School.ID, output.Results[2].School.ID}
	assert.Equal(t, []string{"low", "mid", "top"}, ids)
	assert.Equal(t, 52, output.Results[0].MatchScore.Total)
	assert.Equal(t, models.TypeReach, output.Results[0].Type)
	assert.Equal(t, 67, output.Results[1].MatchScore.Total)
	assert.Equal(t, 85, output.Results[2].MatchScore.Total)

	assert.Equal(t, models.StrategyBalanced, output.Strategy)
	assert.Equal(t, 3, output.PairsScored)
	assert.False(t, output.CatalogEmpty)

	total := 0
	for _, n := range output.TierCounts {
		total += n
	}
	assert.Equal(t, 3, total)

	assert.Equal(t, "智选方案 2024-03-01", output.PlanName)
	require.NotEmpty(t, output.PlanID)
	assert.True(t, mr.Exists(plans.KeyPrefix+output.PlanID))
}

func TestHandler_Execute_PlanPersistence(t *testing.T) {
	tests := []struct {
		name     string
		savePlan *bool
		noStore  bool
		wantSave bool
	}{
		{name: "config default", wantSave: true},
		{name: "caller opts out", savePlan: boolPtr(false)},
		{name: "no store configured", noStore: true, savePlan: boolPtr(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mr := createTestHandler(t, createTestCatalog())
			if tt.noStore {
				h.plans = nil
			}

			output, err := h.Execute(context.Background(), &Input{
				Criteria: ukCriteria(),
				PlanName: "英国计算机",
				SavePlan: tt.savePlan,
			})
			require.NoError(t, err)
			assert.Equal(t, "英国计算机", output.PlanName)
			assert.Equal(t, tt.wantSave, output.PlanID != "")
			assert.Equal(t, tt.wantSave, len(mr.Keys()) == 1)
		})
	}
}

func TestHandler_Execute_StoredPlanRoundTrips(t *testing.T) {
	h, _ := createTestHandler(t, createTestCatalog())

	output, err := h.Execute(context.Background(), &Input{Criteria: ukCriteria(), Strategy: "aggressive"})
	require.NoError(t, err)

	plan, err := h.plans.Get(context.Background(), output.PlanID)
	require.NoError(t, err)
	assert.Equal(t, models.StrategyAggressive, plan.Strategy)
	assert.Equal(t, output.Results, plan.Results)
	assert.Equal(t, []string{"英国"}, plan.Criteria.Countries)
}

func TestHandler_Execute_EmptyCatalog(t *testing.T) {
	h, _ := createTestHandler(t, createTestCatalog())

	criteria := ukCriteria()
	criteria.Countries = []string{"冰岛"}
	output, err := h.Execute(context.Background(), &Input{Criteria: criteria, SavePlan: boolPtr(false)})
	require.NoError(t, err)

	assert.True(t, output.CatalogEmpty)
	assert.Empty(t, output.Results)
	assert.Equal(t, 0, output.PairsScored)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	negative := models.DefaultWeights()
	negative.Cost = -5

	tests := []struct {
		name     string
		provider catalog.Provider
		input    *Input
		code     apperrors.ErrorCode
	}{
		{
			name:  "unknown strategy",
			input: &Input{Criteria: ukCriteria(), Strategy: "yolo"},
			code:  apperrors.ErrCodeStrategyInvalid,
		},
		{
			name:  "negative weight",
			input: &Input{Criteria: func() models.UserCriteria { c := ukCriteria(); c.Weights = &negative; return c }()},
			code:  apperrors.ErrCodeCriteriaInvalid,
		},
		{
			name:     "catalog failure",
			provider: failingProvider{err: errors.New("connection refused")},
			input:    &Input{Criteria: ukCriteria()},
			code:     apperrors.ErrCodeCatalogFetchFailed,
		},
		{
			name:     "catalog timeout",
			provider: failingProvider{err: context.DeadlineExceeded},
			input:    &Input{Criteria: ukCriteria()},
			code:     apperrors.ErrCodeCatalogTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := tt.provider
			if provider == nil {
				provider = createTestCatalog()
			}
			h, _ := createTestHandler(t, provider)

			_, err := h.Execute(context.Background(), tt.input)
			assertErrorCode(t, err, tt.code)
		})
	}
}

func TestHandler_Execute_PlanSaveFailed(t *testing.T) {
	h, mr := createTestHandler(t, createTestCatalog())
	mr.Close()

	_, err := h.Execute(context.Background(), &Input{Criteria: ukCriteria()})
	assertErrorCode(t, err, apperrors.ErrCodePlanSaveFailed)
}

func TestHandler_ResolveStrategy(t *testing.T) {
	h, _ := createTestHandler(t, createTestCatalog())

	h.config.DefaultStrategy = models.StrategyConservative
	got, err := h.resolveStrategy("")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyConservative, got)

	got, err = h.resolveStrategy("aggressive")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyAggressive, got)

	h.config.DefaultStrategy = ""
	got, err = h.resolveStrategy("")
	require.NoError(t, err)
	assert.Equal(t, models.StrategyBalanced, got)
}

// ==========================
// Input Decoding Tests
// ==========================

func TestHandler_DecodeJob(t *testing.T) {
	v, err := validation.NewSchemaValidator(registry.Default())
	require.NoError(t, err)

	job := createMockJob(1, map[string]interface{}{
		"criteria": map[string]interface{}{"countries": []string{"英国"}, "degreeLevel": "master", "gpa": 3.6},
		"strategy": "conservative",
	})
	var input Input
	require.NoError(t, v.DecodeJob(TaskType, job.Variables, &input))
	assert.Equal(t, "conservative", input.Strategy)
	require.NotNil(t, input.Criteria.GPA)
	assert.Equal(t, 3.6, *input.Criteria.GPA)

	bad := createMockJob(2, map[string]interface{}{"strategy": "balanced"})
	err = v.DecodeJob(TaskType, bad.Variables, &input)
	assertErrorCode(t, err, apperrors.ErrCodeInputInvalid)
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkHandler_Execute(b *testing.B) {
	snap := &catalog.Snapshot{}
	for i := 0; i < 200; i++ {
		id := "s-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		snap.Schools = append(snap.Schools, models.School{ID: id, Name: id, Country: "英国", Ranking: intPtr(1 + i*3)})
		snap.Programs = append(snap.Programs,
			models.Program{ID: id + "-cs", SchoolID: id, Name: "计算机科学", Degree: "硕士", TuitionFee: "300000", Category: "计算机"},
			models.Program{ID: id + "-fin", SchoolID: id, Name: "金融学", Degree: "硕士", TuitionFee: "未知"},
		)
	}
	h := NewHandler(createTestConfig(), catalog.NewMemoryProvider(snap), createTestEngine(b, matching.WithParallelism(4)),
		nil, nil, nil, logger.NewNoOpLogger())
	input := &Input{Criteria: ukCriteria()}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.Execute(ctx, input); err != nil {
			b.Fatal(err)
		}
	}
}
