// internal/workers/communication/send-shortlist/handler.go
package sendshortlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"school-match-workers/internal/common/aws"
	apperrors "school-match-workers/internal/common/errors"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/common/validation"
	"school-match-workers/internal/models"
	"school-match-workers/internal/plans"
	"school-match-workers/internal/report"
)

const (
	TaskType = "send-shortlist"
)

var ErrNoRecipient = errors.New("no email or phone given")

type Handler struct {
	config     *Config
	plans      *plans.Store
	email      aws.EmailSender
	sms        aws.SMSSender
	validator  *validation.SchemaValidator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler builds the handler. A nil sender disables its channel.
func NewHandler(
	config *Config,
	store *plans.Store,
	email aws.EmailSender,
	sms aws.SMSSender,
	validator *validation.SchemaValidator,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		plans:      store,
		email:      email,
		sms:        sms,
		validator:  validator,
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
	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)
	if email == "" && phone == "" {
		return nil, apperrors.NewInputInvalidError(TaskType, ErrNoRecipient.Error())
	}
	if email != "" && !validation.ValidateEmail(email) {
		return nil, apperrors.NewInputInvalidError(TaskType, fmt.Sprintf("invalid email %q", email))
	}
	if phone != "" && !validation.ValidatePhone(phone) {
		return nil, apperrors.NewInputInvalidError(TaskType, fmt.Sprintf("invalid phone %q", phone))
	}

	plan, err := h.plans.Get(ctx, input.PlanID)
	switch {
	case errors.Is(err, plans.ErrNotFound):
		return nil, apperrors.NewPlanNotFoundError(input.PlanID)
	case err != nil:
		return nil, apperrors.NewCacheFailedError("get plan", err)
	}

	cfg := h.reportConfig(input.Report)
	output := &Output{
		PlanID:        plan.ID,
		Summary:       report.Summary(plan),
		Notifications: []models.Notification{},
	}

	if email != "" {
		n := h.notification(plan.ID, models.ChannelEmail, email)
		if h.config.EmailEnabled && h.email != nil {
			msgID, err := h.email.SendEmail(ctx, aws.EmailMessage{
				From:     h.config.FromEmail,
				To:       []string{email},
				Subject:  fmt.Sprintf("%s - %s", cfg.Title, plan.Name),
				TextBody: report.Render(plan, cfg, h.now()),
			})
			if err != nil {
				return nil, apperrors.NewReportSendFailedError(models.ChannelEmail, err)
			}
			h.markSent(&n, msgID)
			output.EmailSent, output.MessageID = true, msgID
		}
		output.Notifications = append(output.Notifications, n)
	}

	if phone != "" {
		n := h.notification(plan.ID, models.ChannelSMS, phone)
		if h.config.SMSEnabled && h.sms != nil {
			msgID, err := h.sms.SendSMS(ctx, phone, output.Summary)
			if err != nil {
				if !output.EmailSent {
					return nil, apperrors.NewReportSendFailedError(models.ChannelSMS, err)
				}
				// a delivered email is never resent, so sms failures after it only degrade
				h.logger.Warn("sms delivery failed", map[string]interface{}{
					"planId": plan.ID,
					"error":  err.Error(),
				})
				n.Status, n.Error = models.NotificationFailed, err.Error()
			} else {
				h.markSent(&n, msgID)
				output.SMSSent, output.SMSMessageID = true, msgID
			}
		}
		output.Notifications = append(output.Notifications, n)
	}

	h.logger.Info("shortlist delivered", map[string]interface{}{
		"planId":    plan.ID,
		"results":   len(plan.Results),
		"emailSent": output.EmailSent,
		"smsSent":   output.SMSSent,
	})
	return output, nil
}

func (h *Handler) reportConfig(in *ReportInput) report.Config {
	cfg := h.config.DefaultReport
	if cfg.Title == "" {
		cfg.Title = report.DefaultTitle
	}
	if in == nil {
		return cfg
	}
	if in.Title != "" {
		cfg.Title = in.Title
	}
	if in.IncludeAnalysis != nil {
		cfg.IncludeAnalysis = *in.IncludeAnalysis
	}
	if in.IncludeRecommendations != nil {
		cfg.IncludeRecommendations = *in.IncludeRecommendations
	}
	if in.AdvisorNotes != "" {
		cfg.AdvisorNotes = in.AdvisorNotes
	}
	return cfg
}

func (h *Handler) notification(planID, channel, recipient string) models.Notification {
	return models.Notification{
		ID:        uuid.NewString(),
		PlanID:    planID,
		Channel:   channel,
		Recipient: recipient,
		Status:    models.NotificationDisabled,
	}
}

func (h *Handler) markSent(n *models.Notification, msgID string) {
	sentAt := h.now().UTC()
	n.Status = models.NotificationSent
	n.MessageID = msgID
	n.SentAt = &sentAt
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
