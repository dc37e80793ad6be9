// internal/workers/matching/score-program/handler_test.go
package scoreprogram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"school-match-workers/internal/catalog"
	apperrors "school-match-workers/internal/common/errors"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/matching"
	"school-match-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:         5 * time.Second,
		DefaultStrategy: models.StrategyBalanced,
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
	return catalog.NewMemoryProvider(&catalog.Snapshot{
		Schools: []models.School{
			{ID: "top", Name: "School top", Country: "英国", Location: "英国 伦敦", Ranking: intPtr(5)},
			{ID: "low", Name: "School low", Country: "英国", Location: "英国 伦敦", Ranking: intPtr(400)},
		},
		Programs: []models.Program{
			{ID: "p-top", SchoolID: "top", Name: "计算机科学硕士", Degree: "硕士", Duration: "1年", TuitionFee: "350,000", Category: "计算机"},
			{ID: "p-low", SchoolID: "low", Name: "计算机科学硕士", Degree: "硕士", Duration: "1年", TuitionFee: "600,000", Category: "计算机"},
		},
	})
}

func createTestHandler(t *testing.T, provider catalog.Provider) *Handler {
	return NewHandler(createTestConfig(), provider, createTestEngine(t), nil, createTestLogger(t))
}

type slowProvider struct {
	catalog.Provider
}

func (slowProvider) School(ctx context.Context, id string) (*models.School, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type brokenProvider struct {
	*catalog.MemoryProvider
}

func (brokenProvider) Program(context.Context, string) (*models.Program, error) {
	return nil, errors.New("pq: relation \"programs\" does not exist")
}

func assertErrorCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	h := createTestHandler(t, createTestCatalog())

	output, err := h.Execute(context.Background(), &Input{
		SchoolID:  "top",
		ProgramID: "p-top",
		Criteria:  ukCriteria(),
	})
	require.NoError(t, err)

	assert.Equal(t, 85, output.MatchScore.Total)
	assert.Equal(t, 70.0, output.MatchScore.Breakdown.Admission)
	assert.Equal(t, models.StrategyBalanced, output.Strategy)
	assert.Equal(t, output.Type.Label(), output.TypeLabel)
	assert.False(t, output.CountryMismatch)
}

func TestHandler_Execute_MatchesFullRun(t *testing.T) {
	h := createTestHandler(t, createTestCatalog())
	schools, _ := createTestCatalog().Schools(context.Background(), nil)
	programs, _ := createTestCatalog().Programs(context.Background(), []string{"top", "low"})

	for _, strategy := range []models.MatchStrategy{models.StrategyConservative, models.StrategyBalanced, models.StrategyAggressive} {
		results := createTestEngine(t).Match(schools, programs, ukCriteria(), strategy)
		for _, r := range results {
			output, err := h.Execute(context.Background(), &Input{
				SchoolID:  r.School.ID,
				ProgramID: r.Program.ID,
				Criteria:  ukCriteria(),
				Strategy:  string(strategy),
			})
			require.NoError(t, err)
			assert.Equal(t, r.MatchScore, output.MatchScore, "%s/%s", strategy, r.Program.ID)
			assert.Equal(t, r.Type, output.Type, "%s/%s", strategy, r.Program.ID)
			assert.Equal(t, r.Reason, output.Reason, "%s/%s", strategy, r.Program.ID)
		}
	}
}

func TestHandler_Execute_CountryMismatch(t *testing.T) {
	h := createTestHandler(t, createTestCatalog())

	criteria := ukCriteria()
	criteria.Countries = []string{"美国"}
	output, err := h.Execute(context.Background(), &Input{SchoolID: "low", ProgramID: "p-low", Criteria: criteria})
	require.NoError(t, err)
	assert.True(t, output.CountryMismatch)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider catalog.Provider
		input    *Input
		code     apperrors.ErrorCode
	}{
		{
			name:  "unknown school",
			input: &Input{SchoolID: "nope", ProgramID: "p-top"},
			code:  apperrors.ErrCodeSchoolNotFound,
		},
		{
			name:  "unknown program",
			input: &Input{SchoolID: "top", ProgramID: "nope"},
			code:  apperrors.ErrCodeProgramNotFound,
		},
		{
			name:  "program of another school",
			input: &Input{SchoolID: "top", ProgramID: "p-low"},
			code:  apperrors.ErrCodeProgramNotFound,
		},
		{
			name:  "unknown strategy",
			input: &Input{SchoolID: "top", ProgramID: "p-top", Strategy: "reckless"},
			code:  apperrors.ErrCodeStrategyInvalid,
		},
		{
			name:     "catalog failure",
			provider: brokenProvider{createTestCatalog()},
			input:    &Input{SchoolID: "top", ProgramID: "p-top"},
			code:     apperrors.ErrCodeCatalogFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := tt.provider
			if provider == nil {
				provider = createTestCatalog()
			}
			_, err := createTestHandler(t, provider).Execute(context.Background(), tt.input)
			assertErrorCode(t, err, tt.code)
		})
	}
}

func TestHandler_Execute_Timeout(t *testing.T) {
	h := createTestHandler(t, slowProvider{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := h.Execute(ctx, &Input{SchoolID: "top", ProgramID: "p-top"})
	assertErrorCode(t, err, apperrors.ErrCodeCatalogTimeout)
}

func TestMapLookupError(t *testing.T) {
	notFound := apperrors.NewSchoolNotFoundError("x")

	assert.Same(t, notFound, mapLookupError(catalog.ErrInvalidID, models.QueryTypeSchoolDetails, notFound))
	assert.Same(t, notFound, mapLookupError(catalog.ErrNotFound, models.QueryTypeSchoolDetails, notFound))

	err := mapLookupError(errors.New("boom"), models.QueryTypeSchoolDetails, notFound)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Contains(t, stdErr.Details, string(models.QueryTypeSchoolDetails))
}
