package service

import (
	"context"
	"errors"
	"testing"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/gateway/stripe"
	"github.com/courier-next/internal/queue"
	"github.com/courier-next/internal/repository"

	"gorm.io/gorm"
)

func newTrackingTestService(t *testing.T, db *gorm.DB) *TrackingService {
	t.Helper()
	return NewTrackingService(
		repository.NewParcelRepository(db),
		repository.NewTrackingRepository(db),
	)
}

// 完整生命周期: 支付确认 → 取件 → 送达, 事件按 pending/picked/delivered 各一条有序出现
func TestHistoryFullLifecycleEventOrder(t *testing.T) {
	db := newPaymentTestDB(t, "tracking_lifecycle")
	parcel := seedUnpaidParcel(t, db)

	gw := &fakeGateway{sessions: map[string]*stripe.SessionResult{
		"cs_test_1": {
			SessionID:       "cs_test_1",
			PaymentIntentID: "pi_test_1",
			Status:          "success",
			Amount:          "130.00",
			Currency:        "usd",
			ParcelID:        parcel.ID,
		},
	}}
	paymentSvc := newPaymentTestService(t, db, gw)

	paid, err := paymentSvc.ConfirmBySession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if paid.TrackingID == nil {
		t.Fatalf("expected tracking id after payment")
	}

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	deliverySvc := NewDeliveryService(
		repository.NewParcelRepository(db),
		repository.NewTrackingRepository(db),
		queueClient,
	)
	if _, err := deliverySvc.Pick(parcel.ID, "rider@example.com"); err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	if _, err := deliverySvc.Deliver(parcel.ID, "rider@example.com"); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	svc := newTrackingTestService(t, db)
	view, err := svc.History(*paid.TrackingID, "alice@example.com", constants.RoleUser)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if view.Parcel == nil || view.Parcel.ID != parcel.ID {
		t.Fatalf("unexpected parcel in view: %+v", view.Parcel)
	}

	want := []string{
		constants.DeliveryStatusPending,
		constants.DeliveryStatusPicked,
		constants.DeliveryStatusDelivered,
	}
	if len(view.Events) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(view.Events), view.Events)
	}
	for i, status := range want {
		if view.Events[i].Status != status {
			t.Fatalf("event %d: expected %s, got %s", i, status, view.Events[i].Status)
		}
		if view.Events[i].TrackingID != *paid.TrackingID {
			t.Fatalf("event %d tracking id mismatch: %s", i, view.Events[i].TrackingID)
		}
	}
}

func TestHistoryAccessTiers(t *testing.T) {
	db := newPaymentTestDB(t, "tracking_access")
	parcel := seedUnpaidParcel(t, db)

	gw := &fakeGateway{sessions: map[string]*stripe.SessionResult{
		"cs_test_1": {
			SessionID: "cs_test_1",
			Status:    "success",
			ParcelID:  parcel.ID,
		},
	}}
	paymentSvc := newPaymentTestService(t, db, gw)
	paid, err := paymentSvc.ConfirmBySession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	deliverySvc := NewDeliveryService(
		repository.NewParcelRepository(db),
		repository.NewTrackingRepository(db),
		queueClient,
	)
	if _, err := deliverySvc.Pick(parcel.ID, "rider@example.com"); err != nil {
		t.Fatalf("pick failed: %v", err)
	}

	svc := newTrackingTestService(t, db)
	trackingID := *paid.TrackingID

	if _, err := svc.History(trackingID, "alice@example.com", constants.RoleUser); err != nil {
		t.Fatalf("sender access failed: %v", err)
	}
	if _, err := svc.History(trackingID, "rider@example.com", constants.RoleRider); err != nil {
		t.Fatalf("assigned rider access failed: %v", err)
	}
	if _, err := svc.History(trackingID, "anyone@example.com", constants.RoleAdmin); err != nil {
		t.Fatalf("admin access failed: %v", err)
	}
	if _, err := svc.History(trackingID, "mallory@example.com", constants.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}
	if _, err := svc.History("DEL-20260101-0000000000000000", "alice@example.com", constants.RoleUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown tracking id, got %v", err)
	}
}
