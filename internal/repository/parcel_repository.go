package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/models"

	"gorm.io/gorm"
)

// ParcelRepository 包裹数据访问接口
type ParcelRepository interface {
	Create(parcel *models.Parcel) error
	GetByID(id uint) (*models.Parcel, error)
	GetByTrackingID(trackingID string) (*models.Parcel, error)
	List(filter ParcelListFilter) ([]models.Parcel, int64, error)
	ListPending() ([]models.Parcel, error)
	ListByRider(riderEmail string) ([]models.Parcel, error)
	Update(parcel *models.Parcel) error
	UpdateFields(id uint, updates map[string]interface{}) error
	UpdateDeliveryStatusIf(id uint, expected string, updates map[string]interface{}) (int64, error)
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormParcelRepository
}

// GormParcelRepository GORM 实现
type GormParcelRepository struct {
	db *gorm.DB
}

// NewParcelRepository 创建包裹仓库
func NewParcelRepository(db *gorm.DB) *GormParcelRepository {
	return &GormParcelRepository{db: db}
}

// WithTx 绑定事务
func (r *GormParcelRepository) WithTx(tx *gorm.DB) *GormParcelRepository {
	if tx == nil {
		return r
	}
	return &GormParcelRepository{db: tx}
}

// Create 创建包裹
func (r *GormParcelRepository) Create(parcel *models.Parcel) error {
	return r.db.Create(parcel).Error
}

// GetByID 根据 ID 获取包裹
func (r *GormParcelRepository) GetByID(id uint) (*models.Parcel, error) {
	var parcel models.Parcel
	if err := r.db.First(&parcel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &parcel, nil
}

// GetByTrackingID 根据追踪号获取包裹
func (r *GormParcelRepository) GetByTrackingID(trackingID string) (*models.Parcel, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, nil
	}
	var parcel models.Parcel
	if err := r.db.Where("tracking_id = ?", trackingID).First(&parcel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &parcel, nil
}

// List 包裹列表
func (r *GormParcelRepository) List(filter ParcelListFilter) ([]models.Parcel, int64, error) {
	query := r.db.Model(&models.Parcel{})

	if filter.SenderEmail != "" {
		query = query.Where("sender_email = ?", strings.ToLower(strings.TrimSpace(filter.SenderEmail)))
	}
	if filter.RiderEmail != "" {
		query = query.Where("rider_email = ?", strings.ToLower(strings.TrimSpace(filter.RiderEmail)))
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.DeliveryStatus != "" {
		query = query.Where("delivery_status = ?", filter.DeliveryStatus)
	}
	if filter.PackageType != "" {
		query = query.Where("package_type = ?", filter.PackageType)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("tracking_id LIKE ? OR receiver_name LIKE ? OR sender_name LIKE ?", like, like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var parcels []models.Parcel
	if err := query.Order("id desc").Find(&parcels).Error; err != nil {
		return nil, 0, err
	}
	return parcels, total, nil
}

// ListPending 列出已支付且待取件的包裹
func (r *GormParcelRepository) ListPending() ([]models.Parcel, error) {
	var parcels []models.Parcel
	err := r.db.
		Where("payment_status = ? AND delivery_status = ?", constants.ParcelPaymentPaid, constants.DeliveryStatusPending).
		Order("id asc").
		Find(&parcels).Error
	if err != nil {
		return nil, err
	}
	return parcels, nil
}

// ListByRider 列出骑手名下的包裹
func (r *GormParcelRepository) ListByRider(riderEmail string) ([]models.Parcel, error) {
	var parcels []models.Parcel
	err := r.db.
		Where("rider_email = ?", strings.ToLower(strings.TrimSpace(riderEmail))).
		Order("id desc").
		Find(&parcels).Error
	if err != nil {
		return nil, err
	}
	return parcels, nil
}

// Update 更新包裹
func (r *GormParcelRepository) Update(parcel *models.Parcel) error {
	parcel.UpdatedAt = time.Now()
	return r.db.Save(parcel).Error
}

// UpdateFields 更新指定字段
func (r *GormParcelRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Parcel{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateDeliveryStatusIf 条件更新配送状态, 仅当当前状态等于 expected 时生效,
// 返回受影响行数供调用方判断竞态
func (r *GormParcelRepository) UpdateDeliveryStatusIf(id uint, expected string, updates map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.Parcel{}).
		Where("id = ? AND delivery_status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Delete 删除包裹 (软删除)
func (r *GormParcelRepository) Delete(id uint) error {
	return r.db.Delete(&models.Parcel{}, id).Error
}
