package service

import (
	"strings"
	"time"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/logger"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/queue"
	"github.com/courier-next/internal/repository"
)

// DeliveryService 配送生命周期服务
// 状态迁移一律使用条件更新, 先写的请求生效, 后写的收到冲突错误。
type DeliveryService struct {
	parcelRepo   repository.ParcelRepository
	trackingRepo repository.TrackingRepository
	queueClient  *queue.Client
}

// NewDeliveryService 创建配送服务
func NewDeliveryService(parcelRepo repository.ParcelRepository, trackingRepo repository.TrackingRepository, queueClient *queue.Client) *DeliveryService {
	return &DeliveryService{
		parcelRepo:   parcelRepo,
		trackingRepo: trackingRepo,
		queueClient:  queueClient,
	}
}

// ListPending 列出已支付且等待取件的包裹
func (s *DeliveryService) ListPending() ([]models.Parcel, error) {
	return s.parcelRepo.ListPending()
}

// ListByRider 列出骑手名下包裹
func (s *DeliveryService) ListByRider(riderEmail string) ([]models.Parcel, error) {
	normalized, err := normalizeEmail(riderEmail)
	if err != nil {
		return nil, err
	}
	return s.parcelRepo.ListByRider(normalized)
}

// Pick 骑手取件: pending → picked, 记录骑手与取件时间
func (s *DeliveryService) Pick(parcelID uint, riderEmail string) (*models.Parcel, error) {
	normalized, err := normalizeEmail(riderEmail)
	if err != nil {
		return nil, err
	}
	parcel, err := s.parcelRepo.GetByID(parcelID)
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, ErrNotFound
	}
	if parcel.DeliveryStatus != constants.DeliveryStatusPending {
		return nil, ErrStatusConflict
	}

	now := time.Now()
	affected, err := s.parcelRepo.UpdateDeliveryStatusIf(parcelID, constants.DeliveryStatusPending, map[string]interface{}{
		"delivery_status": constants.DeliveryStatusPicked,
		"rider_email":     normalized,
		"picked_at":       now,
		"updated_at":      now,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrStatusConflict
	}

	s.appendEvent(parcel, constants.DeliveryStatusPicked, normalized, normalized, "骑手已取件")
	s.notifyStatus(parcel.ID, constants.DeliveryStatusPicked)

	return s.parcelRepo.GetByID(parcelID)
}

// Deliver 骑手送达: picked → delivered, 仅取件骑手可操作
func (s *DeliveryService) Deliver(parcelID uint, riderEmail string) (*models.Parcel, error) {
	normalized, err := normalizeEmail(riderEmail)
	if err != nil {
		return nil, err
	}
	parcel, err := s.parcelRepo.GetByID(parcelID)
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, ErrNotFound
	}
	if parcel.DeliveryStatus != constants.DeliveryStatusPicked {
		return nil, ErrStatusConflict
	}
	if !strings.EqualFold(parcel.RiderEmail, normalized) {
		return nil, ErrNotAssignedRider
	}

	now := time.Now()
	affected, err := s.parcelRepo.UpdateDeliveryStatusIf(parcelID, constants.DeliveryStatusPicked, map[string]interface{}{
		"delivery_status": constants.DeliveryStatusDelivered,
		"delivered_at":    now,
		"updated_at":      now,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrStatusConflict
	}

	s.appendEvent(parcel, constants.DeliveryStatusDelivered, normalized, normalized, "包裹已送达")
	s.notifyStatus(parcel.ID, constants.DeliveryStatusDelivered)

	return s.parcelRepo.GetByID(parcelID)
}

// Cancel 管理员取消: pending/none → cancelled
func (s *DeliveryService) Cancel(parcelID uint, adminEmail string) (*models.Parcel, error) {
	parcel, err := s.parcelRepo.GetByID(parcelID)
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, ErrNotFound
	}

	current := parcel.DeliveryStatus
	if current != constants.DeliveryStatusPending && current != constants.DeliveryStatusNone {
		return nil, ErrStatusConflict
	}

	now := time.Now()
	affected, err := s.parcelRepo.UpdateDeliveryStatusIf(parcelID, current, map[string]interface{}{
		"delivery_status": constants.DeliveryStatusCancelled,
		"updated_at":      now,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrStatusConflict
	}

	s.appendEvent(parcel, constants.DeliveryStatusCancelled, adminEmail, parcel.RiderEmail, "管理员取消配送")
	s.notifyStatus(parcel.ID, constants.DeliveryStatusCancelled)

	return s.parcelRepo.GetByID(parcelID)
}

func (s *DeliveryService) appendEvent(parcel *models.Parcel, status, actorEmail, riderEmail, note string) {
	trackingID := ""
	if parcel.TrackingID != nil {
		trackingID = *parcel.TrackingID
	}
	event := &models.TrackingEvent{
		TrackingID: trackingID,
		ParcelID:   parcel.ID,
		Status:     status,
		ActorEmail: strings.ToLower(strings.TrimSpace(actorEmail)),
		RiderEmail: strings.ToLower(strings.TrimSpace(riderEmail)),
		Note:       note,
		CreatedAt:  time.Now(),
	}
	if err := s.trackingRepo.Append(event); err != nil {
		logger.Errorw("tracking_event_append_failed", "parcel_id", parcel.ID, "status", status, "error", err)
	}
}

func (s *DeliveryService) notifyStatus(parcelID uint, status string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueParcelStatusEmail(queue.ParcelStatusEmailPayload{
		ParcelID: parcelID,
		Status:   status,
	}); err != nil {
		logger.Errorw("parcel_status_email_enqueue_failed", "parcel_id", parcelID, "status", status, "error", err)
	}
}
