// internal/workers/matching/quick-match/handler.go
package quickmatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"school-match-workers/internal/catalog"
	apperrors "school-match-workers/internal/common/errors"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/common/metrics"
	"school-match-workers/internal/common/observability"
	"school-match-workers/internal/common/validation"
	"school-match-workers/internal/matching"
	"school-match-workers/internal/models"
	"school-match-workers/internal/plans"
)

const (
	TaskType = "quick-match"
)

type Handler struct {
	config     *Config
	catalog    catalog.Provider
	engine     *matching.Engine
	plans      *plans.Store
	validator  *validation.SchemaValidator
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler builds the handler. store, validator and obs may be nil: plans
// are then never persisted, input is decoded unchecked and only the
// Prometheus match metrics are recorded.
func NewHandler(
	config *Config,
	provider catalog.Provider,
	engine *matching.Engine,
	store *plans.Store,
	validator *validation.SchemaValidator,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		catalog:    provider,
		engine:     engine,
		plans:      store,
		validator:  validator,
		obs:        obs,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
		now:        time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	err := h.validator.DecodeJob(TaskType, job.Variables, &input)
	var output *Output
	if err == nil {
		output, err = h.execute(ctx, &input)
	}
	if err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	return h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	strategy, err := h.resolveStrategy(input.Strategy)
	if err != nil {
		return nil, err
	}
	if err := validateCriteria(input.Criteria); err != nil {
		return nil, err
	}

	schools, programs, err := catalog.Load(ctx, h.catalog, input.Criteria.Countries)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	start := time.Now()
	outcome := h.engine.Run(schools, programs, input.Criteria, strategy)
	elapsed := time.Since(start)

	counts := models.TierCounts(outcome.Results)
	h.recordMatch(ctx, strategy, outcome, counts, elapsed)

	output := &Output{
		Strategy:     strategy,
		Results:      outcome.Results,
		TierCounts:   counts,
		PairsScored:  outcome.PairsScored,
		Candidates:   outcome.Candidates,
		CatalogEmpty: len(schools) == 0 || len(programs) == 0,
	}
	if output.CatalogEmpty {
		h.logger.Info("catalog empty for criteria", map[string]interface{}{
			"countries": input.Criteria.Countries,
			"schools":   len(schools),
			"programs":  len(programs),
		})
	}

	plan := plans.New(input.PlanName, strategy, input.Criteria, outcome.Results, h.now())
	output.PlanName = plan.Name
	if h.shouldSave(input) {
		if err := h.plans.Save(ctx, plan); err != nil {
			return nil, apperrors.NewPlanSaveFailedError(err)
		}
		output.PlanID = plan.ID
	}

	h.logger.Info("quick match completed", map[string]interface{}{
		"planId":      output.PlanID,
		"strategy":    string(strategy),
		"schools":     len(schools),
		"programs":    len(programs),
		"pairsScored": outcome.PairsScored,
		"reach":       counts[models.TypeReach],
		"target":      counts[models.TypeTarget],
		"safety":      counts[models.TypeSafety],
		"durationMs":  elapsed.Milliseconds(),
	})

	return output, nil
}

func (h *Handler) resolveStrategy(raw string) (models.MatchStrategy, error) {
	if raw == "" && h.config.DefaultStrategy.Valid() {
		return h.config.DefaultStrategy, nil
	}
	strategy, ok := models.ParseMatchStrategy(raw)
	if !ok {
		return "", apperrors.NewStrategyInvalidError(raw)
	}
	return strategy, nil
}

// validateCriteria rejects weight overrides the composite cannot use.
// Everything else is left to criteria normalization.
func validateCriteria(c models.UserCriteria) error {
	if c.Weights == nil {
		return nil
	}
	w := *c.Weights
	for _, dim := range []struct {
		key string
		v   float64
	}{
		{"ranking", w.Ranking},
		{"cost", w.Cost},
		{"employability", w.Employability},
		{"reputation", w.Reputation},
		{"location", w.Location},
	} {
		if dim.v < 0 || math.IsNaN(dim.v) {
			return apperrors.NewCriteriaInvalidError(fmt.Sprintf("weight %s must be a non-negative number", dim.key))
		}
	}
	return nil
}

func (h *Handler) shouldSave(input *Input) bool {
	if h.plans == nil {
		return false
	}
	if input.SavePlan != nil {
		return *input.SavePlan
	}
	return h.config.SavePlans
}

func (h *Handler) recordMatch(ctx context.Context, strategy models.MatchStrategy, outcome matching.Outcome, counts map[models.SchoolType]int, elapsed time.Duration) {
	tiers := make(map[string]int, len(counts))
	for t, n := range counts {
		tiers[string(t)] = n
	}
	metrics.ObserveMatch(string(strategy), outcome.PairsScored, tiers, elapsed)
	h.obs.RecordMatch(ctx, string(strategy), outcome.PairsScored, len(outcome.Results))

	if h.config.SlowMatchThreshold > 0 && elapsed > h.config.SlowMatchThreshold {
		h.logger.Warn("slow match", map[string]interface{}{
			"pairsScored": outcome.PairsScored,
			"durationMs":  elapsed.Milliseconds(),
			"thresholdMs": h.config.SlowMatchThreshold.Milliseconds(),
		})
	}
}

func mapCatalogError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewCatalogTimeoutError(string(models.QueryTypeSchoolsByCountry))
	default:
		return apperrors.NewCatalogFetchFailedError(string(models.QueryTypeSchoolsByCountry), err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
