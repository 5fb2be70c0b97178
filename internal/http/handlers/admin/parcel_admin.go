package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/repository"
	"github.com/courier-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListParcels 包裹列表, 支持按状态与寄件人过滤
func (h *Handler) ListParcels(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	parcels, total, err := h.ParcelService.ListAll(repository.ParcelListFilter{
		Page:           page,
		PageSize:       pageSize,
		SenderEmail:    strings.TrimSpace(c.Query("sender_email")),
		DeliveryStatus: strings.TrimSpace(c.Query("delivery_status")),
		PaymentStatus:  strings.TrimSpace(c.Query("payment_status")),
		PackageType:    strings.TrimSpace(c.Query("package_type")),
		RiderEmail:     strings.TrimSpace(c.Query("rider_email")),
		Keyword:        strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch parcels", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, parcels, pagination)
}

// CancelParcel 取消包裹配送, 仅限未取件的包裹
func (h *Handler) CancelParcel(c *gin.Context) {
	adminEmail, ok := getAdminEmail(c)
	if !ok {
		return
	}

	parcelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || parcelID == 0 {
		respondError(c, response.CodeBadRequest, "invalid parcel id", nil)
		return
	}

	parcel, err := h.DeliveryService.Cancel(uint(parcelID), adminEmail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(c, "parcel not found")
		case errors.Is(err, service.ErrStatusConflict):
			respondError(c, response.CodeConflict, "parcel can no longer be cancelled", nil)
		default:
			respondError(c, response.CodeInternal, "failed to cancel parcel", err)
		}
		return
	}

	requestLog(c).Infow("parcel_cancelled", "parcel_id", parcel.ID, "admin_email", adminEmail)
	response.Success(c, parcel)
}
