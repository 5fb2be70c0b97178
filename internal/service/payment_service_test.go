package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/courier-next/internal/config"
	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/gateway/stripe"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeGateway struct {
	sessions       map[string]*stripe.SessionResult
	createdParcels []uint
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, input stripe.CheckoutInput) (*stripe.CheckoutResult, error) {
	g.createdParcels = append(g.createdParcels, input.ParcelID)
	sessionID := fmt.Sprintf("cs_test_%d", input.ParcelID)
	return &stripe.CheckoutResult{
		SessionID: sessionID,
		URL:       "https://checkout.stripe.com/c/pay/" + sessionID,
		Status:    "open",
	}, nil
}

func (g *fakeGateway) QuerySession(_ context.Context, sessionID string) (*stripe.SessionResult, error) {
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (g *fakeGateway) VerifyAndParseWebhook(_ string, _ []byte, _ time.Time) (*stripe.WebhookEvent, error) {
	return nil, errors.New("not used in this fake")
}

func newPaymentTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_service_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Parcel{}, &models.Payment{}, &models.TrackingEvent{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newPaymentTestService(t *testing.T, db *gorm.DB, gw *fakeGateway) *PaymentService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Stripe.Currency = "USD"
	return NewPaymentService(
		cfg,
		db,
		gw,
		repository.NewParcelRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewTrackingRepository(db),
		nil,
	)
}

func seedUnpaidParcel(t *testing.T, db *gorm.DB) *models.Parcel {
	t.Helper()
	parcel := &models.Parcel{
		SenderName:      "Alice",
		SenderEmail:     "alice@example.com",
		ReceiverName:    "Bob",
		DeliveryAddress: "1 Test Street",
		PackageType:     "fragile",
		WeightKG:        models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		DeclaredValue:   models.NewMoneyFromDecimal(decimal.NewFromInt(1000)),
		Fragile:         true,
		Cost:            models.NewMoneyFromDecimal(decimal.RequireFromString("130.00")),
		PaymentStatus:   constants.ParcelPaymentUnpaid,
		DeliveryStatus:  constants.DeliveryStatusNone,
	}
	if err := db.Create(parcel).Error; err != nil {
		t.Fatalf("seed parcel failed: %v", err)
	}
	return parcel
}

func TestCreateCheckoutSessionRejectsPaidParcel(t *testing.T) {
	db := newPaymentTestDB(t, "checkout_paid")
	gw := &fakeGateway{}
	svc := newPaymentTestService(t, db, gw)
	parcel := seedUnpaidParcel(t, db)

	if err := db.Model(&models.Parcel{}).Where("id = ?", parcel.ID).
		Update("payment_status", constants.ParcelPaymentPaid).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	_, err := svc.CreateCheckoutSession(context.Background(), parcel.ID, "alice@example.com", constants.RoleUser)
	if !errors.Is(err, ErrParcelNotPayable) {
		t.Fatalf("expected ErrParcelNotPayable, got %v", err)
	}
}

func TestCreateCheckoutSessionOwnership(t *testing.T) {
	db := newPaymentTestDB(t, "checkout_owner")
	gw := &fakeGateway{}
	svc := newPaymentTestService(t, db, gw)
	parcel := seedUnpaidParcel(t, db)

	if _, err := svc.CreateCheckoutSession(context.Background(), parcel.ID, "mallory@example.com", constants.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	result, err := svc.CreateCheckoutSession(context.Background(), parcel.ID, "alice@example.com", constants.RoleUser)
	if err != nil {
		t.Fatalf("create checkout session failed: %v", err)
	}
	if result.SessionID == "" || result.URL == "" {
		t.Fatalf("unexpected checkout result: %+v", result)
	}
	if len(gw.createdParcels) != 1 || gw.createdParcels[0] != parcel.ID {
		t.Fatalf("gateway not called with parcel id: %v", gw.createdParcels)
	}
}

func TestConfirmBySessionMarksPaidAndAssignsTrackingID(t *testing.T) {
	db := newPaymentTestDB(t, "confirm")
	parcel := seedUnpaidParcel(t, db)
	paidAt := time.Now().Add(-time.Minute)
	gw := &fakeGateway{sessions: map[string]*stripe.SessionResult{
		"cs_test_1": {
			SessionID:       "cs_test_1",
			PaymentIntentID: "pi_test_1",
			Status:          "success",
			Amount:          "130.00",
			Currency:        "USD",
			CustomerEmail:   "alice@example.com",
			ParcelID:        parcel.ID,
			PaidAt:          &paidAt,
		},
	}}
	svc := newPaymentTestService(t, db, gw)

	updated, err := svc.ConfirmBySession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if updated.PaymentStatus != constants.ParcelPaymentPaid {
		t.Fatalf("expected paid, got %s", updated.PaymentStatus)
	}
	if updated.DeliveryStatus != constants.DeliveryStatusPending {
		t.Fatalf("expected pending, got %s", updated.DeliveryStatus)
	}
	if updated.TrackingID == nil {
		t.Fatalf("expected tracking id to be assigned")
	}
	pattern := regexp.MustCompile(`^DEL-\d{8}-[0-9A-F]{16}$`)
	if !pattern.MatchString(*updated.TrackingID) {
		t.Fatalf("unexpected tracking id format: %s", *updated.TrackingID)
	}

	var payment models.Payment
	if err := db.Where("transaction_id = ?", "pi_test_1").First(&payment).Error; err != nil {
		t.Fatalf("payment row missing: %v", err)
	}
	if payment.ParcelID != parcel.ID {
		t.Fatalf("unexpected payment parcel id: %d", payment.ParcelID)
	}
	if payment.Amount.StringFixed(2) != "130.00" {
		t.Fatalf("unexpected payment amount: %s", payment.Amount.StringFixed(2))
	}

	var events []models.TrackingEvent
	if err := db.Where("parcel_id = ?", parcel.ID).Find(&events).Error; err != nil {
		t.Fatalf("load events failed: %v", err)
	}
	if len(events) != 1 || events[0].Status != constants.DeliveryStatusPending {
		t.Fatalf("expected one pending event, got %+v", events)
	}
}

func TestConfirmBySessionIsIdempotent(t *testing.T) {
	db := newPaymentTestDB(t, "idempotent")
	parcel := seedUnpaidParcel(t, db)
	gw := &fakeGateway{sessions: map[string]*stripe.SessionResult{
		"cs_test_1": {
			SessionID:       "cs_test_1",
			PaymentIntentID: "pi_test_1",
			Status:          "success",
			Amount:          "130.00",
			Currency:        "USD",
			ParcelID:        parcel.ID,
		},
	}}
	svc := newPaymentTestService(t, db, gw)

	first, err := svc.ConfirmBySession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	second, err := svc.ConfirmBySession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("second confirm failed: %v", err)
	}
	if *first.TrackingID != *second.TrackingID {
		t.Fatalf("tracking id changed on repeat confirm: %s vs %s", *first.TrackingID, *second.TrackingID)
	}

	var count int64
	if err := db.Model(&models.Payment{}).Where("parcel_id = ?", parcel.ID).Count(&count).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one payment row, got %d", count)
	}

	var events int64
	if err := db.Model(&models.TrackingEvent{}).Where("parcel_id = ?", parcel.ID).Count(&events).Error; err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected exactly one tracking event, got %d", events)
	}
}

func TestConfirmBySessionUnpaidStatusIsNoop(t *testing.T) {
	db := newPaymentTestDB(t, "unpaid_status")
	parcel := seedUnpaidParcel(t, db)
	gw := &fakeGateway{sessions: map[string]*stripe.SessionResult{
		"cs_test_1": {
			SessionID: "cs_test_1",
			Status:    "pending",
			ParcelID:  parcel.ID,
		},
	}}
	svc := newPaymentTestService(t, db, gw)

	confirmed, err := svc.ConfirmBySession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("expected no-op success for unpaid gateway status, got %v", err)
	}
	if confirmed != nil {
		t.Fatalf("expected nil parcel on no-op confirm, got %+v", confirmed)
	}

	var fresh models.Parcel
	if err := db.First(&fresh, parcel.ID).Error; err != nil {
		t.Fatalf("reload parcel failed: %v", err)
	}
	if fresh.PaymentStatus != constants.ParcelPaymentUnpaid || fresh.TrackingID != nil {
		t.Fatalf("parcel state changed despite unpaid gateway status: %+v", fresh)
	}
}

func TestGenerateTrackingIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^DEL-\d{8}-[0-9A-F]{16}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		id, err := generateTrackingID()
		if err != nil {
			t.Fatalf("generate tracking id failed: %v", err)
		}
		if !pattern.MatchString(id) {
			t.Fatalf("unexpected tracking id format: %s", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate tracking id: %s", id)
		}
		seen[id] = struct{}{}
	}
}
