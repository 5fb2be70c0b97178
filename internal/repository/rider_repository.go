package repository

import (
	"errors"
	"strings"

	"github.com/courier-next/internal/models"

	"gorm.io/gorm"
)

// RiderRepository 骑手申请数据访问接口
type RiderRepository interface {
	Create(application *models.RiderApplication) error
	GetByID(id uint) (*models.RiderApplication, error)
	GetByEmail(email string) (*models.RiderApplication, error)
	List(filter RiderListFilter) ([]models.RiderApplication, int64, error)
	Update(application *models.RiderApplication) error
	WithTx(tx *gorm.DB) *GormRiderRepository
}

// GormRiderRepository GORM 实现
type GormRiderRepository struct {
	db *gorm.DB
}

// NewRiderRepository 创建骑手申请仓库
func NewRiderRepository(db *gorm.DB) *GormRiderRepository {
	return &GormRiderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRiderRepository) WithTx(tx *gorm.DB) *GormRiderRepository {
	if tx == nil {
		return r
	}
	return &GormRiderRepository{db: tx}
}

// Create 创建骑手申请
func (r *GormRiderRepository) Create(application *models.RiderApplication) error {
	return r.db.Create(application).Error
}

// GetByID 根据 ID 获取申请
func (r *GormRiderRepository) GetByID(id uint) (*models.RiderApplication, error) {
	var application models.RiderApplication
	if err := r.db.First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

// GetByEmail 根据邮箱获取申请
func (r *GormRiderRepository) GetByEmail(email string) (*models.RiderApplication, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var application models.RiderApplication
	if err := r.db.Where("email = ?", email).First(&application).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &application, nil
}

// List 申请列表
func (r *GormRiderRepository) List(filter RiderListFilter) ([]models.RiderApplication, int64, error) {
	query := r.db.Model(&models.RiderApplication{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("full_name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}
	if filter.AppliedFrom != nil {
		query = query.Where("applied_at >= ?", *filter.AppliedFrom)
	}
	if filter.AppliedTo != nil {
		query = query.Where("applied_at <= ?", *filter.AppliedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var applications []models.RiderApplication
	if err := query.Order("id desc").Find(&applications).Error; err != nil {
		return nil, 0, err
	}
	return applications, total, nil
}

// Update 更新申请
func (r *GormRiderRepository) Update(application *models.RiderApplication) error {
	return r.db.Save(application).Error
}
