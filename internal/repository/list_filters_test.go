package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newFilterTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Parcel{}, &models.Payment{}, &models.RiderApplication{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func seedFilterParcel(t *testing.T, db *gorm.DB, sender, receiver, packageType, trackingID string) *models.Parcel {
	t.Helper()
	parcel := &models.Parcel{
		SenderName:     sender,
		SenderEmail:    sender + "@example.com",
		ReceiverName:   receiver,
		PackageType:    packageType,
		WeightKG:       models.NewMoneyFromDecimal(decimal.NewFromInt(1)),
		Cost:           models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
		PaymentStatus:  constants.ParcelPaymentPaid,
		DeliveryStatus: constants.DeliveryStatusPending,
	}
	if trackingID != "" {
		parcel.TrackingID = &trackingID
	}
	if err := db.Create(parcel).Error; err != nil {
		t.Fatalf("seed parcel failed: %v", err)
	}
	return parcel
}

func TestParcelListFilterPackageTypeAndKeyword(t *testing.T) {
	db := newFilterTestDB(t, "parcel_filter")
	repo := NewParcelRepository(db)

	seedFilterParcel(t, db, "alice", "Bob", "document", "DEL-20260101-AAAA000000000001")
	seedFilterParcel(t, db, "carol", "Dave", "electronics", "DEL-20260101-BBBB000000000002")
	seedFilterParcel(t, db, "erin", "Mallet", "document", "DEL-20260101-CCCC000000000003")

	byType, total, err := repo.List(ParcelListFilter{Page: 1, PageSize: 20, PackageType: "document"})
	if err != nil {
		t.Fatalf("list by package type failed: %v", err)
	}
	if total != 2 || len(byType) != 2 {
		t.Fatalf("expected 2 document parcels, got total=%d len=%d", total, len(byType))
	}

	// 关键字同时命中运单号, 收件人与寄件人
	byTracking, total, err := repo.List(ParcelListFilter{Page: 1, PageSize: 20, Keyword: "BBBB"})
	if err != nil {
		t.Fatalf("list by tracking keyword failed: %v", err)
	}
	if total != 1 || byTracking[0].SenderName != "carol" {
		t.Fatalf("expected carol's parcel by tracking keyword, got total=%d %+v", total, byTracking)
	}

	byName, total, err := repo.List(ParcelListFilter{Page: 1, PageSize: 20, Keyword: "Mall"})
	if err != nil {
		t.Fatalf("list by name keyword failed: %v", err)
	}
	if total != 1 || byName[0].ReceiverName != "Mallet" {
		t.Fatalf("expected Mallet's parcel by name keyword, got total=%d %+v", total, byName)
	}
}

func seedFilterPayment(t *testing.T, db *gorm.DB, parcelID uint, transactionID string, paidAt time.Time) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		ParcelID:      parcelID,
		TransactionID: transactionID,
		Amount:        models.NewMoneyFromDecimal(decimal.RequireFromString("50.00")),
		Currency:      "USD",
		Status:        constants.PaymentStatusSuccess,
		CustomerEmail: "alice@example.com",
		PaidAt:        &paidAt,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("seed payment failed: %v", err)
	}
	return payment
}

func TestPaymentListFilterPaidRangeAndOrder(t *testing.T) {
	db := newFilterTestDB(t, "payment_filter")
	repo := NewPaymentRepository(db)
	parcel := seedFilterParcel(t, db, "alice", "Bob", "document", "DEL-20260101-DDDD000000000004")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedFilterPayment(t, db, parcel.ID, "pi_old", base.AddDate(0, 0, -10))
	seedFilterPayment(t, db, parcel.ID, "pi_mid", base)
	seedFilterPayment(t, db, parcel.ID, "pi_new", base.AddDate(0, 0, 10))

	from := base.AddDate(0, 0, -1)
	to := base.AddDate(0, 0, 1)
	inRange, total, err := repo.List(PaymentListFilter{Page: 1, PageSize: 20, PaidFrom: &from, PaidTo: &to})
	if err != nil {
		t.Fatalf("list by paid range failed: %v", err)
	}
	if total != 1 || inRange[0].TransactionID != "pi_mid" {
		t.Fatalf("expected only pi_mid in range, got total=%d %+v", total, inRange)
	}

	// 支付时间倒序
	all, _, err := repo.List(PaymentListFilter{Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list all payments failed: %v", err)
	}
	wantOrder := []string{"pi_new", "pi_mid", "pi_old"}
	for i, transactionID := range wantOrder {
		if all[i].TransactionID != transactionID {
			t.Fatalf("position %d: expected %s, got %s", i, transactionID, all[i].TransactionID)
		}
	}

	history, err := repo.ListByParcel(parcel.ID)
	if err != nil {
		t.Fatalf("list by parcel failed: %v", err)
	}
	for i, transactionID := range wantOrder {
		if history[i].TransactionID != transactionID {
			t.Fatalf("history position %d: expected %s, got %s", i, transactionID, history[i].TransactionID)
		}
	}
}

func TestRiderListFilterKeywordAndAppliedRange(t *testing.T) {
	db := newFilterTestDB(t, "rider_filter")
	repo := NewRiderRepository(db)

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	applications := []models.RiderApplication{
		{FullName: "Jamal Uddin", Email: "jamal@example.com", Phone: "01711111111", Status: constants.RiderStatusPending, AppliedAt: base.AddDate(0, 0, -20)},
		{FullName: "Rhea Das", Email: "rhea@example.com", Phone: "01722222222", Status: constants.RiderStatusPending, AppliedAt: base},
		{FullName: "Sumi Akter", Email: "sumi@example.com", Phone: "01733333333", Status: constants.RiderStatusApproved, AppliedAt: base.AddDate(0, 0, 20)},
	}
	for i := range applications {
		if err := db.Create(&applications[i]).Error; err != nil {
			t.Fatalf("seed application failed: %v", err)
		}
	}

	byKeyword, total, err := repo.List(RiderListFilter{Page: 1, PageSize: 20, Keyword: "rhea"})
	if err != nil {
		t.Fatalf("list by keyword failed: %v", err)
	}
	if total != 1 || byKeyword[0].Email != "rhea@example.com" {
		t.Fatalf("expected rhea by keyword, got total=%d %+v", total, byKeyword)
	}

	from := base.AddDate(0, 0, -1)
	inRange, total, err := repo.List(RiderListFilter{Page: 1, PageSize: 20, AppliedFrom: &from})
	if err != nil {
		t.Fatalf("list by applied range failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 applications from %s, got %d: %+v", from, total, inRange)
	}
}
