package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/queue"
	"github.com/courier-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newDeliveryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:delivery_service_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Parcel{}, &models.TrackingEvent{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newDeliveryTestService(t *testing.T, db *gorm.DB) *DeliveryService {
	t.Helper()
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	return NewDeliveryService(
		repository.NewParcelRepository(db),
		repository.NewTrackingRepository(db),
		queueClient,
	)
}

func seedPendingParcel(t *testing.T, db *gorm.DB) *models.Parcel {
	t.Helper()
	trackingID := "DEL-20260101-ABCDEF1234567890"
	parcel := &models.Parcel{
		SenderName:     "Alice",
		SenderEmail:    "alice@example.com",
		ReceiverName:   "Bob",
		PackageType:    "small",
		WeightKG:       models.NewMoneyFromDecimal(decimal.NewFromInt(2)),
		Cost:           models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
		PaymentStatus:  constants.ParcelPaymentPaid,
		DeliveryStatus: constants.DeliveryStatusPending,
		TrackingID:     &trackingID,
	}
	if err := db.Create(parcel).Error; err != nil {
		t.Fatalf("seed parcel failed: %v", err)
	}
	return parcel
}

func TestPickAssignsRiderAndAppendsEvent(t *testing.T) {
	db := newDeliveryTestDB(t, "pick")
	svc := newDeliveryTestService(t, db)
	parcel := seedPendingParcel(t, db)

	updated, err := svc.Pick(parcel.ID, "rider@example.com")
	if err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	if updated.DeliveryStatus != constants.DeliveryStatusPicked {
		t.Fatalf("expected picked, got %s", updated.DeliveryStatus)
	}
	if updated.RiderEmail != "rider@example.com" {
		t.Fatalf("unexpected rider email: %s", updated.RiderEmail)
	}
	if updated.PickedAt == nil {
		t.Fatalf("expected picked_at to be stamped")
	}

	var events []models.TrackingEvent
	if err := db.Where("parcel_id = ?", parcel.ID).Find(&events).Error; err != nil {
		t.Fatalf("load events failed: %v", err)
	}
	if len(events) != 1 || events[0].Status != constants.DeliveryStatusPicked {
		t.Fatalf("expected one picked event, got %+v", events)
	}
	if events[0].TrackingID != *parcel.TrackingID {
		t.Fatalf("event tracking id mismatch: %s", events[0].TrackingID)
	}
}

func TestPickConflictSecondRiderLoses(t *testing.T) {
	db := newDeliveryTestDB(t, "pick_conflict")
	svc := newDeliveryTestService(t, db)
	parcel := seedPendingParcel(t, db)

	if _, err := svc.Pick(parcel.ID, "first@example.com"); err != nil {
		t.Fatalf("first pick failed: %v", err)
	}
	if _, err := svc.Pick(parcel.ID, "second@example.com"); !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	var fresh models.Parcel
	if err := db.First(&fresh, parcel.ID).Error; err != nil {
		t.Fatalf("reload parcel failed: %v", err)
	}
	if fresh.RiderEmail != "first@example.com" {
		t.Fatalf("first rider should keep the parcel, got %s", fresh.RiderEmail)
	}
}

func TestDeliverOnlyByAssignedRider(t *testing.T) {
	db := newDeliveryTestDB(t, "deliver")
	svc := newDeliveryTestService(t, db)
	parcel := seedPendingParcel(t, db)

	if _, err := svc.Pick(parcel.ID, "rider@example.com"); err != nil {
		t.Fatalf("pick failed: %v", err)
	}

	if _, err := svc.Deliver(parcel.ID, "other@example.com"); !errors.Is(err, ErrNotAssignedRider) {
		t.Fatalf("expected ErrNotAssignedRider, got %v", err)
	}

	updated, err := svc.Deliver(parcel.ID, "rider@example.com")
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if updated.DeliveryStatus != constants.DeliveryStatusDelivered {
		t.Fatalf("expected delivered, got %s", updated.DeliveryStatus)
	}
	if updated.DeliveredAt == nil {
		t.Fatalf("expected delivered_at to be stamped")
	}
}

func TestDeliverRequiresPickedState(t *testing.T) {
	db := newDeliveryTestDB(t, "deliver_state")
	svc := newDeliveryTestService(t, db)
	parcel := seedPendingParcel(t, db)

	if _, err := svc.Deliver(parcel.ID, "rider@example.com"); !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict for pending parcel, got %v", err)
	}
}

func TestCancelPendingParcel(t *testing.T) {
	db := newDeliveryTestDB(t, "cancel")
	svc := newDeliveryTestService(t, db)
	parcel := seedPendingParcel(t, db)

	updated, err := svc.Cancel(parcel.ID, "admin@courier.local")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if updated.DeliveryStatus != constants.DeliveryStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.DeliveryStatus)
	}

	// 已取件的包裹不允许取消
	again := seedPendingParcel2(t, db)
	if _, err := svc.Pick(again.ID, "rider@example.com"); err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	if _, err := svc.Cancel(again.ID, "admin@courier.local"); !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict for picked parcel, got %v", err)
	}
}

func seedPendingParcel2(t *testing.T, db *gorm.DB) *models.Parcel {
	t.Helper()
	trackingID := "DEL-20260101-1234567890ABCDEF"
	parcel := &models.Parcel{
		SenderName:     "Carol",
		SenderEmail:    "carol@example.com",
		ReceiverName:   "Dave",
		PackageType:    "medium",
		WeightKG:       models.NewMoneyFromDecimal(decimal.NewFromInt(4)),
		Cost:           models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
		PaymentStatus:  constants.ParcelPaymentPaid,
		DeliveryStatus: constants.DeliveryStatusPending,
		TrackingID:     &trackingID,
	}
	if err := db.Create(parcel).Error; err != nil {
		t.Fatalf("seed parcel failed: %v", err)
	}
	return parcel
}

func TestListPendingReturnsPaidPendingOnly(t *testing.T) {
	db := newDeliveryTestDB(t, "list_pending")
	svc := newDeliveryTestService(t, db)
	seedPendingParcel(t, db)

	unpaid := &models.Parcel{
		SenderName:     "Eve",
		SenderEmail:    "eve@example.com",
		ReceiverName:   "Frank",
		PackageType:    "small",
		WeightKG:       models.NewMoneyFromDecimal(decimal.NewFromInt(1)),
		Cost:           models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
		PaymentStatus:  constants.ParcelPaymentUnpaid,
		DeliveryStatus: constants.DeliveryStatusNone,
	}
	if err := db.Create(unpaid).Error; err != nil {
		t.Fatalf("seed unpaid parcel failed: %v", err)
	}

	pending, err := svc.ListPending()
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending parcel, got %d", len(pending))
	}
	if pending[0].SenderEmail != "alice@example.com" {
		t.Fatalf("unexpected pending parcel: %+v", pending[0])
	}
}
