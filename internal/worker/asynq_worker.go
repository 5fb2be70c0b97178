package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/courier-next/internal/logger"
	"github.com/courier-next/internal/provider"
	"github.com/courier-next/internal/queue"
	"github.com/courier-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskParcelStatusEmail, c.handleParcelStatusEmail)
	mux.HandleFunc(queue.TaskRiderDecisionEmail, c.handleRiderDecisionEmail)
}

func (c *Consumer) handleParcelStatusEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_parcel_status_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ParcelStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_parcel_status_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.ParcelID == 0 {
		logger.Debugw("worker_parcel_status_email_skip_invalid_payload", "parcel_id", payload.ParcelID)
		return nil
	}
	parcel, err := c.ParcelRepo.GetByID(payload.ParcelID)
	if err != nil {
		logger.Warnw("worker_parcel_status_email_fetch_parcel_failed", "parcel_id", payload.ParcelID, "error", err)
		return err
	}
	if parcel == nil {
		logger.Debugw("worker_parcel_status_email_skip_parcel_not_found", "parcel_id", payload.ParcelID)
		return nil
	}
	receiverEmail := strings.TrimSpace(parcel.SenderEmail)
	if receiverEmail == "" {
		logger.Debugw("worker_parcel_status_email_skip_empty_receiver", "parcel_id", parcel.ID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_parcel_status_email_skip_email_service_nil", "parcel_id", parcel.ID)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = parcel.DeliveryStatus
	}
	trackingID := ""
	if parcel.TrackingID != nil {
		trackingID = *parcel.TrackingID
	}
	input := service.ParcelStatusEmailInput{
		TrackingID:      trackingID,
		Status:          status,
		ReceiverName:    parcel.ReceiverName,
		DeliveryAddress: parcel.DeliveryAddress,
		Cost:            parcel.Cost,
		Currency:        c.Config.Stripe.Currency,
	}
	if err := c.EmailService.SendParcelStatusEmail(receiverEmail, input); err != nil {
		if isEmailConfigError(err) {
			logger.Debugw("worker_parcel_status_email_skip_disabled", "parcel_id", parcel.ID, "error", err)
			return nil
		}
		logger.Warnw("worker_parcel_status_email_send_failed", "parcel_id", parcel.ID, "error", err)
		return err
	}
	logger.Infow("worker_parcel_status_email_sent", "parcel_id", parcel.ID, "status", status)
	return nil
}

func (c *Consumer) handleRiderDecisionEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_rider_decision_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RiderDecisionEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_rider_decision_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.ApplicationID == 0 {
		logger.Debugw("worker_rider_decision_email_skip_invalid_payload", "application_id", payload.ApplicationID)
		return nil
	}
	application, err := c.RiderRepo.GetByID(payload.ApplicationID)
	if err != nil {
		logger.Warnw("worker_rider_decision_email_fetch_failed", "application_id", payload.ApplicationID, "error", err)
		return err
	}
	if application == nil {
		logger.Debugw("worker_rider_decision_email_skip_not_found", "application_id", payload.ApplicationID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_rider_decision_email_skip_email_service_nil", "application_id", application.ID)
		return nil
	}
	decision := strings.TrimSpace(payload.Decision)
	if decision == "" {
		decision = application.Status
	}
	input := service.RiderDecisionEmailInput{
		FullName: application.FullName,
		Decision: decision,
	}
	if err := c.EmailService.SendRiderDecisionEmail(application.Email, input); err != nil {
		if isEmailConfigError(err) {
			logger.Debugw("worker_rider_decision_email_skip_disabled", "application_id", application.ID, "error", err)
			return nil
		}
		logger.Warnw("worker_rider_decision_email_send_failed", "application_id", application.ID, "error", err)
		return err
	}
	logger.Infow("worker_rider_decision_email_sent", "application_id", application.ID, "decision", decision)
	return nil
}

// 邮件服务未启用或未配置时直接吞掉任务, 不触发重试
func isEmailConfigError(err error) bool {
	return errors.Is(err, service.ErrEmailServiceDisabled) || errors.Is(err, service.ErrEmailServiceNotConfigured)
}
