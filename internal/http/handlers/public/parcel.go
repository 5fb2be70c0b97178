package public

import (
	"strconv"

	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ParcelRequest 创建/报价包裹请求
type ParcelRequest struct {
	SenderName    string `json:"sender_name" binding:"required"`
	SenderPhone   string `json:"sender_phone"`
	PickupAddress string `json:"pickup_address" binding:"required"`

	ReceiverName    string `json:"receiver_name" binding:"required"`
	ReceiverPhone   string `json:"receiver_phone"`
	DeliveryAddress string `json:"delivery_address" binding:"required"`

	PackageType   string          `json:"package_type" binding:"required"`
	WeightKG      decimal.Decimal `json:"weight_kg" binding:"required"`
	LengthCM      decimal.Decimal `json:"length_cm"`
	WidthCM       decimal.Decimal `json:"width_cm"`
	HeightCM      decimal.Decimal `json:"height_cm"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
	Fragile       bool            `json:"fragile"`
	Hazardous     bool            `json:"hazardous"`
	DeliverySpeed string          `json:"delivery_speed"`
}

func (r ParcelRequest) toServiceInput() service.CreateParcelInput {
	return service.CreateParcelInput{
		SenderName:      r.SenderName,
		SenderPhone:     r.SenderPhone,
		PickupAddress:   r.PickupAddress,
		ReceiverName:    r.ReceiverName,
		ReceiverPhone:   r.ReceiverPhone,
		DeliveryAddress: r.DeliveryAddress,
		PackageType:     r.PackageType,
		WeightKG:        r.WeightKG,
		LengthCM:        r.LengthCM,
		WidthCM:         r.WidthCM,
		HeightCM:        r.HeightCM,
		DeclaredValue:   r.DeclaredValue,
		Fragile:         r.Fragile,
		Hazardous:       r.Hazardous,
		DeliverySpeed:   r.DeliverySpeed,
	}
}

// QuoteParcel 计价预览, 不落库
func (h *Handler) QuoteParcel(c *gin.Context) {
	var req ParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	quote, err := h.ParcelService.Quote(req.toServiceInput())
	if err != nil {
		respondParcelQuoteError(c, err)
		return
	}

	response.Success(c, quote)
}

// CreateParcel 创建包裹, 费用由服务端计价
func (h *Handler) CreateParcel(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}

	var req ParcelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	parcel, err := h.ParcelService.Create(email, req.toServiceInput())
	if err != nil {
		respondParcelCreateError(c, err)
		return
	}

	requestLog(c).Infow("parcel_created",
		"parcel_id", parcel.ID,
		"sender_email", parcel.SenderEmail,
		"cost", parcel.Cost.StringFixed(2),
	)
	response.Success(c, parcel)
}

// ListMyParcels 列出当前用户寄出的包裹
func (h *Handler) ListMyParcels(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	parcels, total, err := h.ParcelService.ListBySender(email, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch parcels", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, parcels, pagination)
}

// GetParcel 获取包裹详情
func (h *Handler) GetParcel(c *gin.Context) {
	email, role, ok := getActor(c)
	if !ok {
		return
	}

	parcelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || parcelID == 0 {
		respondError(c, response.CodeBadRequest, "invalid parcel id", nil)
		return
	}

	parcel, err := h.ParcelService.GetForActor(uint(parcelID), email, role)
	if err != nil {
		respondParcelAccessError(c, err)
		return
	}

	response.Success(c, parcel)
}

// DeleteParcel 删除未支付包裹
func (h *Handler) DeleteParcel(c *gin.Context) {
	email, role, ok := getActor(c)
	if !ok {
		return
	}

	parcelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || parcelID == 0 {
		respondError(c, response.CodeBadRequest, "invalid parcel id", nil)
		return
	}

	if err := h.ParcelService.Delete(uint(parcelID), email, role); err != nil {
		respondParcelDeleteError(c, err)
		return
	}

	requestLog(c).Infow("parcel_deleted", "parcel_id", parcelID, "actor_email", email)
	response.SuccessWithMsg(c, "parcel deleted", nil)
}
