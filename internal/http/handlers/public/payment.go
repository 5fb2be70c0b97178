package public

import (
	"io"
	"strconv"
	"strings"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// CreateCheckoutSessionRequest 创建结账会话请求
type CreateCheckoutSessionRequest struct {
	ParcelID uint `json:"parcel_id" binding:"required"`
}

// CreateCheckoutSession 为包裹创建 Stripe 结账会话
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	email, role, ok := getActor(c)
	if !ok {
		return
	}

	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	result, err := h.PaymentService.CreateCheckoutSession(c.Request.Context(), req.ParcelID, email, role)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	requestLog(c).Infow("checkout_session_created",
		"parcel_id", req.ParcelID,
		"session_id", result.SessionID,
	)
	response.Success(c, result)
}

// ConfirmPayment 按会话号向网关核实支付结果并落账
// 前端支付跳转回来后调用, 与 webhook 互为兜底, 处理幂等。
func (h *Handler) ConfirmPayment(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		respondError(c, response.CodeBadRequest, "session_id is required", nil)
		return
	}

	parcel, err := h.PaymentService.ConfirmBySession(c.Request.Context(), sessionID)
	if err != nil {
		respondPaymentConfirmError(c, err)
		return
	}
	if parcel == nil {
		// 网关侧未支付: 不改状态, 直接成功返回
		requestLog(c).Infow("payment_confirm_noop", "session_id", sessionID)
		response.Success(c, nil)
		return
	}

	requestLog(c).Infow("payment_confirmed",
		"session_id", sessionID,
		"parcel_id", parcel.ID,
		"tracking_id", parcel.TrackingID,
	)
	response.Success(c, parcel)
}

// StripeWebhook Stripe webhook 回调
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	signature := strings.TrimSpace(c.GetHeader("Stripe-Signature"))
	log.Infow("stripe_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	if err := h.PaymentService.HandleStripeWebhook(signature, body); err != nil {
		log.Warnw("stripe_webhook_handle_failed", "error", err)
		respondPaymentConfirmError(c, err)
		return
	}

	response.Success(c, gin.H{"received": true})
}

// ListMyPayments 支付历史, 普通用户仅可见自己的流水, 管理员可见全部
func (h *Handler) ListMyPayments(c *gin.Context) {
	email, role, ok := getActor(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PaymentListFilter{
		Page:          page,
		PageSize:      pageSize,
		CustomerEmail: email,
		Status:        strings.TrimSpace(c.Query("status")),
	}
	if role == constants.RoleAdmin {
		filter.CustomerEmail = strings.TrimSpace(c.Query("customer_email"))
	}

	payments, total, err := h.PaymentService.ListAll(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch payments", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, payments, pagination)
}

// ListParcelPayments 列出包裹的支付流水
func (h *Handler) ListParcelPayments(c *gin.Context) {
	email, role, ok := getActor(c)
	if !ok {
		return
	}

	parcelID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || parcelID == 0 {
		respondError(c, response.CodeBadRequest, "invalid parcel id", nil)
		return
	}

	// 访问控制复用包裹可见性规则
	if _, err := h.ParcelService.GetForActor(uint(parcelID), email, role); err != nil {
		respondParcelAccessError(c, err)
		return
	}

	payments, err := h.PaymentService.ListByParcel(uint(parcelID))
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch payments", err)
		return
	}

	response.Success(c, payments)
}
