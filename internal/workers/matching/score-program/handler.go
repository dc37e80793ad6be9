// internal/workers/matching/score-program/handler.go
package scoreprogram

import (
	"context"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"school-match-workers/internal/catalog"
	apperrors "school-match-workers/internal/common/errors"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/common/validation"
	"school-match-workers/internal/matching"
	"school-match-workers/internal/models"
)

const (
	TaskType = "score-program"
)

type Handler struct {
	config     *Config
	catalog    catalog.Provider
	engine     *matching.Engine
	validator  *validation.SchemaValidator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, provider catalog.Provider, engine *matching.Engine, validator *validation.SchemaValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		catalog:    provider,
		engine:     engine,
		validator:  validator,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
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

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	strategy := h.config.DefaultStrategy
	if input.Strategy != "" || !strategy.Valid() {
		var ok bool
		if strategy, ok = models.ParseMatchStrategy(input.Strategy); !ok {
			return nil, apperrors.NewStrategyInvalidError(input.Strategy)
		}
	}

	school, err := h.catalog.School(ctx, input.SchoolID)
	if err != nil {
		return nil, mapLookupError(err, models.QueryTypeSchoolDetails, apperrors.NewSchoolNotFoundError(input.SchoolID))
	}
	program, err := h.catalog.Program(ctx, input.ProgramID)
	if err != nil {
		return nil, mapLookupError(err, models.QueryTypeProgramDetails, apperrors.NewProgramNotFoundError(input.ProgramID))
	}
	if program.SchoolID != school.ID {
		notFound := apperrors.NewProgramNotFoundError(input.ProgramID)
		notFound.Details = fmt.Sprintf("%s, not offered by school %s", notFound.Details, school.ID)
		return nil, notFound
	}

	result := h.engine.Evaluate(*school, *program, input.Criteria, strategy)

	countries := matching.NormalizeCriteria(input.Criteria).Countries
	output := &Output{
		SchoolID:        school.ID,
		ProgramID:       program.ID,
		Strategy:        strategy,
		MatchScore:      result.MatchScore,
		Type:            result.Type,
		TypeLabel:       result.Type.Label(),
		Reason:          result.Reason,
		CountryMismatch: len(countries) > 0 && !matching.CountryMatches(school.Country, countries),
	}

	h.logger.Info("program scored", map[string]interface{}{
		"schoolId":  school.ID,
		"programId": program.ID,
		"strategy":  string(strategy),
		"score":     result.MatchScore.Total,
		"type":      string(result.Type),
	})
	return output, nil
}

// mapLookupError turns a single-record catalog error into its worker error.
// Malformed ids are reported as not found.
func mapLookupError(err error, query models.QueryType, notFound *apperrors.StandardError) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrInvalidID):
		return notFound
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewCatalogTimeoutError(string(query))
	default:
		return apperrors.NewCatalogFetchFailedError(string(query), err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
