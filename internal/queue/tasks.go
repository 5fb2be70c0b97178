package queue

import (
	"encoding/json"

	"github.com/courier-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskParcelStatusEmail 包裹状态邮件通知任务
	TaskParcelStatusEmail = constants.TaskParcelStatusEmail
	// TaskRiderDecisionEmail 骑手申请结果邮件任务
	TaskRiderDecisionEmail = constants.TaskRiderDecisionEmail
)

// ParcelStatusEmailPayload 包裹状态邮件任务载荷
type ParcelStatusEmailPayload struct {
	ParcelID uint   `json:"parcel_id"`
	Status   string `json:"status"`
}

// RiderDecisionEmailPayload 骑手申请结果邮件任务载荷
type RiderDecisionEmailPayload struct {
	ApplicationID uint   `json:"application_id"`
	Decision      string `json:"decision"`
}

// NewParcelStatusEmailTask 创建包裹状态邮件任务
func NewParcelStatusEmailTask(payload ParcelStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskParcelStatusEmail, body), nil
}

// NewRiderDecisionEmailTask 创建骑手申请结果邮件任务
func NewRiderDecisionEmailTask(payload RiderDecisionEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRiderDecisionEmail, body), nil
}
