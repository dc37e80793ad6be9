// internal/workers/catalog/search-programs/handler.go
package searchprograms

import (
	"context"
	"errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"school-match-workers/internal/catalog"
	apperrors "school-match-workers/internal/common/errors"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/common/validation"
)

const (
	TaskType = "search-programs"
)

type Handler struct {
	config     *Config
	searcher   *catalog.ProgramSearcher
	validator  *validation.SchemaValidator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, searcher *catalog.ProgramSearcher, validator *validation.SchemaValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		searcher:   searcher,
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
	query := catalog.ProgramQuery{
		Keywords:  input.Keywords,
		Degree:    input.Degree,
		Category:  input.Category,
		SchoolIDs: input.SchoolIDs,
		Size:      h.config.DefaultSize,
	}
	if p := input.Pagination; p != nil {
		query.From = p.From
		if p.Size > 0 {
			query.Size = p.Size
		}
	}
	query.From, query.Size = catalog.NormalizePage(query.From, query.Size)

	result, err := h.searcher.Search(ctx, query)
	if err != nil {
		return nil, h.mapSearchError(ctx, err)
	}

	h.logger.Info("program search completed", map[string]interface{}{
		"keywords": input.Keywords,
		"hits":     len(result.Hits),
		"total":    result.Total,
		"tookMs":   result.Took,
	})

	return &Output{
		Hits:     result.Hits,
		Total:    result.Total,
		MaxScore: result.MaxScore,
		Took:     result.Took,
		From:     query.From,
		Size:     query.Size,
		HasMore:  int64(query.From+len(result.Hits)) < result.Total,
	}, nil
}

func (h *Handler) mapSearchError(ctx context.Context, err error) error {
	index := h.searcher.Index()
	switch {
	case errors.Is(err, catalog.ErrIndexMissing):
		return apperrors.NewIndexNotFoundError(index)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.NewSearchTimeoutError(index)
	default:
		return apperrors.NewSearchQueryFailedError(index, err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
