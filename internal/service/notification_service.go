package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/config"
	"github.com/applicationadmin-sgt/sgtu-lms-api/pkg/jobs"
)

// NotificationSender delivers a message to a recipient. The real delivery
// channel (email, push) lives outside this service; the default sender only
// logs so failures never surface to callers.
type NotificationSender interface {
	Send(ctx context.Context, recipientID, message string, data map[string]interface{}) error
}

// LogSender is the fallback NotificationSender writing deliveries to the log.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, recipientID, message string, data map[string]interface{}) error {
	s.logger.Sugar().Infow("notification", "recipient_id", recipientID, "message", message, "data", data)
	return nil
}

type notificationPayload struct {
	RecipientID string
	Message     string
	Data        map[string]interface{}
}

// NotificationService dispatches notifications fire-and-forget through a
// background worker queue. Enqueue failures are logged and never propagate to
// the mutation that triggered them.
type NotificationService struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService wires the sender behind a worker queue.
func NewNotificationService(sender NotificationSender, cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = NewLogSender(logger)
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(notificationPayload)
		if !ok {
			logger.Sugar().Errorw("unexpected notification payload", "job_id", job.ID, "type", job.Type)
			return nil
		}
		return sender.Send(ctx, payload.RecipientID, payload.Message, payload.Data)
	}

	queue := jobs.NewQueue("notifications", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})

	return &NotificationService{queue: queue, logger: logger, enabled: cfg.Enabled}
}

// Start begins background dispatch.
func (s *NotificationService) Start(ctx context.Context) {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Stop()
}

// Notify enqueues a notification. Never fails the caller.
func (s *NotificationService) Notify(recipientID, message string, data map[string]interface{}) {
	if s == nil || !s.enabled {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "notify",
		Payload: notificationPayload{RecipientID: recipientID, Message: message, Data: data},
	})
	if err != nil {
		s.logger.Sugar().Warnw("failed to enqueue notification", "recipient_id", recipientID, "error", err)
	}
}
