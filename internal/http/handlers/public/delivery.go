package public

import (
	"strconv"

	"github.com/courier-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListPendingParcels 列出已支付待取件的包裹, 供骑手抢单
func (h *Handler) ListPendingParcels(c *gin.Context) {
	parcels, err := h.DeliveryService.ListPending()
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch pending parcels", err)
		return
	}

	response.Success(c, parcels)
}

// ListMyDeliveries 列出当前骑手承运的包裹
func (h *Handler) ListMyDeliveries(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}

	parcels, err := h.DeliveryService.ListByRider(email)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch deliveries", err)
		return
	}

	response.Success(c, parcels)
}

// PickParcel 骑手取件, 同一单只允许一名骑手成功
func (h *Handler) PickParcel(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}

	parcelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || parcelID == 0 {
		respondError(c, response.CodeBadRequest, "invalid parcel id", nil)
		return
	}

	parcel, err := h.DeliveryService.Pick(uint(parcelID), email)
	if err != nil {
		respondDeliveryActionError(c, err)
		return
	}

	requestLog(c).Infow("parcel_picked", "parcel_id", parcel.ID, "rider_email", email)
	response.Success(c, parcel)
}

// DeliverParcel 骑手确认送达, 仅限取件骑手本人
func (h *Handler) DeliverParcel(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}

	parcelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || parcelID == 0 {
		respondError(c, response.CodeBadRequest, "invalid parcel id", nil)
		return
	}

	parcel, err := h.DeliveryService.Deliver(uint(parcelID), email)
	if err != nil {
		respondDeliveryActionError(c, err)
		return
	}

	requestLog(c).Infow("parcel_delivered", "parcel_id", parcel.ID, "rider_email", email)
	response.Success(c, parcel)
}
