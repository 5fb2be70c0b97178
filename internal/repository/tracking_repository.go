package repository

import (
	"strings"

	"github.com/courier-next/internal/models"

	"gorm.io/gorm"
)

// TrackingRepository 追踪事件数据访问接口, 事件只追加不修改
type TrackingRepository interface {
	Append(event *models.TrackingEvent) error
	ListByTrackingID(trackingID string) ([]models.TrackingEvent, error)
	ListByParcel(parcelID uint) ([]models.TrackingEvent, error)
	WithTx(tx *gorm.DB) *GormTrackingRepository
}

// GormTrackingRepository GORM 实现
type GormTrackingRepository struct {
	db *gorm.DB
}

// NewTrackingRepository 创建追踪事件仓库
func NewTrackingRepository(db *gorm.DB) *GormTrackingRepository {
	return &GormTrackingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTrackingRepository) WithTx(tx *gorm.DB) *GormTrackingRepository {
	if tx == nil {
		return r
	}
	return &GormTrackingRepository{db: tx}
}

// Append 追加追踪事件
func (r *GormTrackingRepository) Append(event *models.TrackingEvent) error {
	return r.db.Create(event).Error
}

// ListByTrackingID 按时间顺序列出追踪号下的事件
func (r *GormTrackingRepository) ListByTrackingID(trackingID string) ([]models.TrackingEvent, error) {
	trackingID = strings.TrimSpace(trackingID)
	var events []models.TrackingEvent
	err := r.db.
		Where("tracking_id = ?", trackingID).
		Order("created_at asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// ListByParcel 按时间顺序列出包裹的事件
func (r *GormTrackingRepository) ListByParcel(parcelID uint) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := r.db.
		Where("parcel_id = ?", parcelID).
		Order("created_at asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
