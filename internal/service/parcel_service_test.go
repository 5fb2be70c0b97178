package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newParcelTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:parcel_service_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Parcel{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestCreateComputesCostServerSide(t *testing.T) {
	db := newParcelTestDB(t, "create")
	svc := NewParcelService(repository.NewParcelRepository(db))

	parcel, err := svc.Create("Alice@Example.com", CreateParcelInput{
		SenderName:      "Alice",
		ReceiverName:    "Bob",
		DeliveryAddress: "1 Test Street",
		PackageType:     "Fragile",
		WeightKG:        decimal.NewFromInt(5),
		DeclaredValue:   decimal.NewFromInt(1000),
		Fragile:         true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	// 5kg × 20.00 = 100, 易碎 ×1.20 = 120, 保价 1000×1% = 10 → 130.00
	if parcel.Cost.StringFixed(2) != "130.00" {
		t.Fatalf("unexpected cost: %s", parcel.Cost.StringFixed(2))
	}
	if parcel.SenderEmail != "alice@example.com" {
		t.Fatalf("sender email not normalized: %s", parcel.SenderEmail)
	}
	if parcel.PackageType != "fragile" {
		t.Fatalf("package type not normalized: %s", parcel.PackageType)
	}
	if parcel.PaymentStatus != constants.ParcelPaymentUnpaid {
		t.Fatalf("expected unpaid, got %s", parcel.PaymentStatus)
	}
	if parcel.DeliveryStatus != constants.DeliveryStatusNone {
		t.Fatalf("expected none, got %s", parcel.DeliveryStatus)
	}
	if parcel.TrackingID != nil {
		t.Fatalf("tracking id must not be assigned before payment")
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	db := newParcelTestDB(t, "invalid")
	svc := NewParcelService(repository.NewParcelRepository(db))

	if _, err := svc.Create("alice@example.com", CreateParcelInput{
		PackageType: "small",
		WeightKG:    decimal.Zero,
	}); err == nil {
		t.Fatalf("expected weight validation error")
	}
	if _, err := svc.Create("not-an-email", CreateParcelInput{
		PackageType: "small",
		WeightKG:    decimal.NewFromInt(1),
	}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestGetForActorEnforcesOwnership(t *testing.T) {
	db := newParcelTestDB(t, "ownership")
	svc := NewParcelService(repository.NewParcelRepository(db))

	parcel, err := svc.Create("alice@example.com", CreateParcelInput{
		SenderName:   "Alice",
		ReceiverName: "Bob",
		PackageType:  "small",
		WeightKG:     decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.GetForActor(parcel.ID, "alice@example.com", constants.RoleUser); err != nil {
		t.Fatalf("owner access failed: %v", err)
	}
	if _, err := svc.GetForActor(parcel.ID, "mallory@example.com", constants.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetForActor(parcel.ID, "admin@courier.local", constants.RoleAdmin); err != nil {
		t.Fatalf("admin access failed: %v", err)
	}

	// 被分配骑手可见
	if err := db.Model(&models.Parcel{}).Where("id = ?", parcel.ID).
		Update("rider_email", "rider@example.com").Error; err != nil {
		t.Fatalf("assign rider failed: %v", err)
	}
	if _, err := svc.GetForActor(parcel.ID, "rider@example.com", constants.RoleRider); err != nil {
		t.Fatalf("assigned rider access failed: %v", err)
	}
}

func TestDeletePaidParcelRejected(t *testing.T) {
	db := newParcelTestDB(t, "delete")
	svc := NewParcelService(repository.NewParcelRepository(db))

	parcel, err := svc.Create("alice@example.com", CreateParcelInput{
		SenderName:   "Alice",
		ReceiverName: "Bob",
		PackageType:  "small",
		WeightKG:     decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(parcel.ID, "mallory@example.com", constants.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner delete, got %v", err)
	}

	if err := db.Model(&models.Parcel{}).Where("id = ?", parcel.ID).
		Update("payment_status", constants.ParcelPaymentPaid).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if err := svc.Delete(parcel.ID, "alice@example.com", constants.RoleUser); !errors.Is(err, ErrParcelNotDeletable) {
		t.Fatalf("expected ErrParcelNotDeletable, got %v", err)
	}

	if err := db.Model(&models.Parcel{}).Where("id = ?", parcel.ID).
		Update("payment_status", constants.ParcelPaymentUnpaid).Error; err != nil {
		t.Fatalf("mark unpaid failed: %v", err)
	}
	if err := svc.Delete(parcel.ID, "alice@example.com", constants.RoleUser); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.GetForActor(parcel.ID, "alice@example.com", constants.RoleUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestQuoteMatchesPricingTable(t *testing.T) {
	db := newParcelTestDB(t, "quote")
	svc := NewParcelService(repository.NewParcelRepository(db))

	quote, err := svc.Quote(CreateParcelInput{
		PackageType: "small",
		WeightKG:    decimal.NewFromInt(2),
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	// 2kg × 8.00 = 16, 低于最低消费 50.00
	if quote.Total.StringFixed(2) != "50.00" {
		t.Fatalf("unexpected quote total: %s", quote.Total.StringFixed(2))
	}
}
