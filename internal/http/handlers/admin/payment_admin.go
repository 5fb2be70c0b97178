package admin

import (
	"strconv"
	"strings"

	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListPayments 支付流水列表
func (h *Handler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PaymentListFilter{
		Page:          page,
		PageSize:      pageSize,
		CustomerEmail: strings.TrimSpace(c.Query("customer_email")),
		Status:        strings.TrimSpace(c.Query("status")),
	}
	if parcelID, err := strconv.ParseUint(c.Query("parcel_id"), 10, 64); err == nil && parcelID > 0 {
		filter.ParcelID = uint(parcelID)
	}

	payments, total, err := h.PaymentService.ListAll(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch payments", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, payments, pagination)
}
