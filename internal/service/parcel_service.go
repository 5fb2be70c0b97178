package service

import (
	"strings"
	"time"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/pricing"
	"github.com/courier-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ParcelService 包裹服务
type ParcelService struct {
	parcelRepo repository.ParcelRepository
}

// NewParcelService 创建包裹服务
func NewParcelService(parcelRepo repository.ParcelRepository) *ParcelService {
	return &ParcelService{parcelRepo: parcelRepo}
}

// CreateParcelInput 创建包裹输入, 价格由服务端计算, 不接受客户端金额
type CreateParcelInput struct {
	SenderName    string
	SenderEmail   string
	SenderPhone   string
	PickupAddress string

	ReceiverName    string
	ReceiverPhone   string
	DeliveryAddress string

	PackageType   string
	WeightKG      decimal.Decimal
	LengthCM      decimal.Decimal
	WidthCM       decimal.Decimal
	HeightCM      decimal.Decimal
	DeclaredValue decimal.Decimal
	Fragile       bool
	Hazardous     bool
	DeliverySpeed string
}

// Quote 试算价格, 不落库
func (s *ParcelService) Quote(input CreateParcelInput) (*pricing.Quote, error) {
	return pricing.Calculate(pricing.Input{
		PackageType:   input.PackageType,
		WeightKG:      input.WeightKG,
		LengthCM:      input.LengthCM,
		WidthCM:       input.WidthCM,
		HeightCM:      input.HeightCM,
		DeclaredValue: input.DeclaredValue,
		Fragile:       input.Fragile,
		Hazardous:     input.Hazardous,
	})
}

// Create 创建包裹, 初始未支付且未进入配送流程
func (s *ParcelService) Create(senderEmail string, input CreateParcelInput) (*models.Parcel, error) {
	normalized, err := normalizeEmail(senderEmail)
	if err != nil {
		return nil, err
	}

	quote, err := s.Quote(input)
	if err != nil {
		return nil, err
	}

	speed := strings.ToLower(strings.TrimSpace(input.DeliverySpeed))
	if speed == "" {
		speed = "standard"
	}

	now := time.Now()
	parcel := &models.Parcel{
		SenderName:    strings.TrimSpace(input.SenderName),
		SenderEmail:   normalized,
		SenderPhone:   strings.TrimSpace(input.SenderPhone),
		PickupAddress: strings.TrimSpace(input.PickupAddress),

		ReceiverName:    strings.TrimSpace(input.ReceiverName),
		ReceiverPhone:   strings.TrimSpace(input.ReceiverPhone),
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),

		PackageType:   strings.ToLower(strings.TrimSpace(input.PackageType)),
		WeightKG:      models.NewMoneyFromDecimal(input.WeightKG),
		LengthCM:      models.NewMoneyFromDecimal(input.LengthCM),
		WidthCM:       models.NewMoneyFromDecimal(input.WidthCM),
		HeightCM:      models.NewMoneyFromDecimal(input.HeightCM),
		DeclaredValue: models.NewMoneyFromDecimal(input.DeclaredValue),
		Fragile:       input.Fragile,
		Hazardous:     input.Hazardous,
		DeliverySpeed: speed,

		Cost:           models.NewMoneyFromDecimal(quote.Total),
		PaymentStatus:  constants.ParcelPaymentUnpaid,
		DeliveryStatus: constants.DeliveryStatusNone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.parcelRepo.Create(parcel); err != nil {
		return nil, err
	}
	return parcel, nil
}

// GetForActor 获取包裹, 仅发件人, 被分配骑手或管理员可见
func (s *ParcelService) GetForActor(id uint, actorEmail, actorRole string) (*models.Parcel, error) {
	parcel, err := s.parcelRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, ErrNotFound
	}
	if !canAccessParcel(parcel, actorEmail, actorRole) {
		return nil, ErrForbidden
	}
	return parcel, nil
}

// ListBySender 列出发件人名下包裹
func (s *ParcelService) ListBySender(senderEmail string, page, pageSize int) ([]models.Parcel, int64, error) {
	normalized, err := normalizeEmail(senderEmail)
	if err != nil {
		return nil, 0, err
	}
	return s.parcelRepo.List(repository.ParcelListFilter{
		SenderEmail: normalized,
		Page:        page,
		PageSize:    pageSize,
	})
}

// ListAll 管理端列表
func (s *ParcelService) ListAll(filter repository.ParcelListFilter) ([]models.Parcel, int64, error) {
	return s.parcelRepo.List(filter)
}

// Delete 删除包裹, 已支付的包裹不可删除
func (s *ParcelService) Delete(id uint, actorEmail, actorRole string) error {
	parcel, err := s.parcelRepo.GetByID(id)
	if err != nil {
		return err
	}
	if parcel == nil {
		return ErrNotFound
	}
	if !isAdmin(actorRole) && !strings.EqualFold(parcel.SenderEmail, strings.TrimSpace(actorEmail)) {
		return ErrForbidden
	}
	if parcel.PaymentStatus == constants.ParcelPaymentPaid {
		return ErrParcelNotDeletable
	}
	return s.parcelRepo.Delete(id)
}

func canAccessParcel(parcel *models.Parcel, actorEmail, actorRole string) bool {
	if isAdmin(actorRole) {
		return true
	}
	email := strings.ToLower(strings.TrimSpace(actorEmail))
	if email == "" {
		return false
	}
	if strings.EqualFold(parcel.SenderEmail, email) {
		return true
	}
	return parcel.RiderEmail != "" && strings.EqualFold(parcel.RiderEmail, email)
}

func isAdmin(role string) bool {
	return strings.ToLower(strings.TrimSpace(role)) == constants.RoleAdmin
}
