// internal/workers/matching/lock-result/handler.go
package lockresult

import (
	"context"
	"errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "school-match-workers/internal/common/errors"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/common/validation"
	"school-match-workers/internal/plans"
)

const (
	TaskType = "lock-result"
)

type Handler struct {
	config     *Config
	plans      *plans.Store
	validator  *validation.SchemaValidator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, store *plans.Store, validator *validation.SchemaValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		plans:      store,
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
	result, err := h.plans.SetLocked(ctx, input.PlanID, input.Index, input.Locked)
	var indexErr *plans.IndexError
	switch {
	case errors.Is(err, plans.ErrNotFound):
		return nil, apperrors.NewPlanNotFoundError(input.PlanID)
	case errors.As(err, &indexErr):
		return nil, apperrors.NewPlanIndexOutOfRangeError(input.PlanID, indexErr.Index, indexErr.Size)
	case err != nil:
		return nil, apperrors.NewPlanSaveFailedError(err)
	}

	return &Output{
		PlanID: input.PlanID,
		Index:  input.Index,
		Locked: result.Locked,
		Result: *result,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
