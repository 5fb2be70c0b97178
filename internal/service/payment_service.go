package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/courier-next/internal/config"
	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/gateway/stripe"
	"github.com/courier-next/internal/logger"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/queue"
	"github.com/courier-next/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentGateway 支付网关接口, 生产环境由 Stripe 客户端实现
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutResult, error)
	QuerySession(ctx context.Context, sessionID string) (*stripe.SessionResult, error)
	VerifyAndParseWebhook(signatureHeader string, body []byte, now time.Time) (*stripe.WebhookEvent, error)
}

// PaymentService 支付对账服务
// 对账以网关侧状态为准, 以交易号保证幂等, 状态落库与追踪号生成在同一事务内完成。
type PaymentService struct {
	cfg          *config.Config
	db           *gorm.DB
	gateway      PaymentGateway
	parcelRepo   repository.ParcelRepository
	paymentRepo  repository.PaymentRepository
	trackingRepo repository.TrackingRepository
	queueClient  *queue.Client
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	cfg *config.Config,
	db *gorm.DB,
	gateway PaymentGateway,
	parcelRepo repository.ParcelRepository,
	paymentRepo repository.PaymentRepository,
	trackingRepo repository.TrackingRepository,
	queueClient *queue.Client,
) *PaymentService {
	return &PaymentService{
		cfg:          cfg,
		db:           db,
		gateway:      gateway,
		parcelRepo:   parcelRepo,
		paymentRepo:  paymentRepo,
		trackingRepo: trackingRepo,
		queueClient:  queueClient,
	}
}

// CheckoutSessionResult 结账会话创建结果
type CheckoutSessionResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// CreateCheckoutSession 为包裹创建结账会话, 金额取服务端计价结果
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, parcelID uint, actorEmail, actorRole string) (*CheckoutSessionResult, error) {
	parcel, err := s.parcelRepo.GetByID(parcelID)
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		return nil, ErrNotFound
	}
	if !isAdmin(actorRole) && !strings.EqualFold(parcel.SenderEmail, strings.TrimSpace(actorEmail)) {
		return nil, ErrForbidden
	}
	if parcel.PaymentStatus != constants.ParcelPaymentUnpaid {
		return nil, ErrParcelNotPayable
	}
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	result, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutInput{
		ParcelID:      parcel.ID,
		Description:   fmt.Sprintf("Parcel delivery #%d (%s)", parcel.ID, parcel.PackageType),
		Amount:        parcel.Cost.StringFixed(2),
		Currency:      s.cfg.Stripe.Currency,
		CustomerEmail: parcel.SenderEmail,
	})
	if err != nil {
		paymentLogger("parcel_id", parcel.ID, "error", err).Errorw("checkout_session_create_failed")
		return nil, err
	}

	paymentLogger(
		"parcel_id", parcel.ID,
		"session_id", result.SessionID,
		"amount", parcel.Cost.StringFixed(2),
	).Infow("checkout_session_created")

	return &CheckoutSessionResult{SessionID: result.SessionID, URL: result.URL}, nil
}

// ConfirmBySession 按会话号对账, 支付成功时标记已付并进入待取件
// 幂等: 同一交易号重复确认是空操作; 网关侧未支付同样按空操作返回 (nil, nil), 不视为错误。
func (s *PaymentService) ConfirmBySession(ctx context.Context, sessionID string) (*models.Parcel, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrNotFound
	}
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	log := paymentLogger("session_id", sessionID)
	log.Infow("payment_confirm_received")

	session, err := s.gateway.QuerySession(ctx, sessionID)
	if err != nil {
		log.Errorw("payment_confirm_gateway_query_failed", "error", err)
		return nil, err
	}
	if session.Status != "success" {
		log.Infow("payment_confirm_noop", "gateway_status", session.Status)
		return nil, nil
	}

	return s.reconcile(reconcileInput{
		ParcelID:        session.ParcelID,
		SessionID:       session.SessionID,
		PaymentIntentID: session.PaymentIntentID,
		Amount:          session.Amount,
		Currency:        session.Currency,
		CustomerEmail:   session.CustomerEmail,
		PaidAt:          session.PaidAt,
		Raw:             session.Raw,
	})
}

// HandleStripeWebhook 校验签名并处理 Stripe webhook, 复用同一条对账路径
func (s *PaymentService) HandleStripeWebhook(signatureHeader string, body []byte) error {
	if s.gateway == nil {
		return ErrGatewayNotConfigured
	}
	event, err := s.gateway.VerifyAndParseWebhook(signatureHeader, body, time.Now())
	if err != nil {
		logger.Warnw("stripe_webhook_verify_failed", "error", err)
		return err
	}

	log := paymentLogger("event_id", event.EventID, "event_type", event.EventType, "session_id", event.SessionID)
	if event.Status != "success" || event.SessionID == "" {
		log.Infow("stripe_webhook_ignored")
		return nil
	}

	if _, err := s.reconcile(reconcileInput{
		ParcelID:        event.ParcelID,
		SessionID:       event.SessionID,
		PaymentIntentID: event.PaymentIntentID,
		Amount:          event.Amount,
		Currency:        event.Currency,
		CustomerEmail:   event.CustomerEmail,
		PaidAt:          event.PaidAt,
		Raw:             event.Raw,
	}); err != nil {
		log.Errorw("stripe_webhook_reconcile_failed", "error", err)
		return err
	}
	log.Infow("stripe_webhook_processed")
	return nil
}

// ListByParcel 列出包裹支付流水
func (s *PaymentService) ListByParcel(parcelID uint) ([]models.Payment, error) {
	return s.paymentRepo.ListByParcel(parcelID)
}

// ListAll 管理端流水列表
func (s *PaymentService) ListAll(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(filter)
}

type reconcileInput struct {
	ParcelID        uint
	SessionID       string
	PaymentIntentID string
	Amount          string
	Currency        string
	CustomerEmail   string
	PaidAt          *time.Time
	Raw             map[string]interface{}
}

func (s *PaymentService) reconcile(input reconcileInput) (*models.Parcel, error) {
	transactionID := strings.TrimSpace(input.PaymentIntentID)
	if transactionID == "" {
		transactionID = strings.TrimSpace(input.SessionID)
	}
	if transactionID == "" {
		return nil, ErrPaymentNotCompleted
	}

	log := paymentLogger(
		"parcel_id", input.ParcelID,
		"transaction_id", transactionID,
		"session_id", input.SessionID,
	)

	// 幂等判定: 交易号已入账则直接返回
	existing, err := s.paymentRepo.GetByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Infow("payment_reconcile_idempotent")
		parcel, err := s.parcelRepo.GetByID(existing.ParcelID)
		if err != nil {
			return nil, err
		}
		if parcel == nil {
			return nil, ErrNotFound
		}
		return parcel, nil
	}

	parcel, err := s.parcelRepo.GetByID(input.ParcelID)
	if err != nil {
		return nil, err
	}
	if parcel == nil {
		log.Warnw("payment_reconcile_parcel_not_found")
		return nil, ErrNotFound
	}
	if parcel.PaymentStatus == constants.ParcelPaymentPaid {
		log.Infow("payment_reconcile_already_paid")
		return parcel, nil
	}

	trackingID, err := generateTrackingID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	paidAt := now
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	amount := parcel.Cost
	if parsed, perr := decimal.NewFromString(strings.TrimSpace(input.Amount)); perr == nil && parsed.IsPositive() {
		amount = models.NewMoneyFromDecimal(parsed)
	}
	customerEmail := strings.ToLower(strings.TrimSpace(input.CustomerEmail))
	if customerEmail == "" {
		customerEmail = parcel.SenderEmail
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		parcelRepo := s.parcelRepo.WithTx(tx)
		paymentRepo := s.paymentRepo.WithTx(tx)
		trackingRepo := s.trackingRepo.WithTx(tx)

		affected, err := parcelRepo.UpdateDeliveryStatusIf(parcel.ID, constants.DeliveryStatusNone, map[string]interface{}{
			"payment_status":  constants.ParcelPaymentPaid,
			"delivery_status": constants.DeliveryStatusPending,
			"tracking_id":     trackingID,
			"updated_at":      now,
		})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrStatusConflict
		}

		payment := &models.Payment{
			ParcelID:      parcel.ID,
			TransactionID: transactionID,
			SessionID:     strings.TrimSpace(input.SessionID),
			Amount:        amount,
			Currency:      strings.ToUpper(strings.TrimSpace(input.Currency)),
			Status:        constants.PaymentStatusSuccess,
			CustomerEmail: customerEmail,
			PaidAt:        &paidAt,
			CreatedAt:     now,
		}
		if len(input.Raw) > 0 {
			payment.ProviderPayload = models.JSON(input.Raw)
		}
		if err := paymentRepo.Create(payment); err != nil {
			return err
		}

		return trackingRepo.Append(&models.TrackingEvent{
			TrackingID: trackingID,
			ParcelID:   parcel.ID,
			Status:     constants.DeliveryStatusPending,
			ActorEmail: customerEmail,
			Note:       "支付确认, 等待取件",
			CreatedAt:  now,
		})
	})
	if err != nil {
		// 并发确认时另一条路径先入账, 按幂等成功处理
		if err == ErrStatusConflict {
			if winner, werr := s.paymentRepo.GetByTransactionID(transactionID); werr == nil && winner != nil {
				log.Infow("payment_reconcile_concurrent_idempotent")
				return s.parcelRepo.GetByID(parcel.ID)
			}
			refreshed, gerr := s.parcelRepo.GetByID(parcel.ID)
			if gerr == nil && refreshed != nil && refreshed.PaymentStatus == constants.ParcelPaymentPaid {
				log.Infow("payment_reconcile_concurrent_idempotent")
				return refreshed, nil
			}
		}
		log.Errorw("payment_reconcile_failed", "error", err)
		return nil, err
	}

	log.Infow("payment_reconcile_processed", "tracking_id", trackingID)

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueParcelStatusEmail(queue.ParcelStatusEmailPayload{
			ParcelID: parcel.ID,
			Status:   constants.DeliveryStatusPending,
		}); err != nil {
			log.Errorw("parcel_status_email_enqueue_failed", "error", err)
		}
	}

	return s.parcelRepo.GetByID(parcel.ID)
}

// generateTrackingID 生成追踪号: DEL-YYYYMMDD-16 位大写十六进制
func generateTrackingID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s",
		constants.TrackingIDPrefix,
		time.Now().Format("20060102"),
		strings.ToUpper(hex.EncodeToString(buf)),
	), nil
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}
