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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newRiderTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:rider_service_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.RiderApplication{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func newRiderTestService(t *testing.T, db *gorm.DB) *RiderService {
	t.Helper()
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	return NewRiderService(db, repository.NewRiderRepository(db), repository.NewUserRepository(db), queueClient)
}

func seedApplicant(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  "Applicant",
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return user
}

func TestApplyRejectsDuplicateEmail(t *testing.T) {
	db := newRiderTestDB(t, "duplicate")
	svc := newRiderTestService(t, db)

	input := ApplyInput{
		FullName:    "Jane Rider",
		Email:       "jane@example.com",
		Phone:       "555-0100",
		VehicleType: "bike",
	}
	if _, err := svc.Apply(input); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if _, err := svc.Apply(input); !errors.Is(err, ErrRiderApplicationExists) {
		t.Fatalf("expected ErrRiderApplicationExists, got %v", err)
	}
}

func TestApprovePromotesUserRole(t *testing.T) {
	db := newRiderTestDB(t, "approve")
	svc := newRiderTestService(t, db)
	user := seedApplicant(t, db, "jane@example.com", constants.RoleUser)

	application, err := svc.Apply(ApplyInput{
		FullName:    "Jane Rider",
		Email:       "jane@example.com",
		VehicleType: "bike",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	decided, err := svc.Approve(application.ID, "admin@courier.local")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if decided.Status != constants.RiderStatusApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}
	if decided.DecidedAt == nil || decided.DecidedBy != "admin@courier.local" {
		t.Fatalf("decision metadata missing: %+v", decided)
	}

	var fresh models.User
	if err := db.First(&fresh, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if fresh.Role != constants.RoleRider {
		t.Fatalf("expected role rider, got %s", fresh.Role)
	}
}

func TestApproveKeepsAdminRole(t *testing.T) {
	db := newRiderTestDB(t, "approve_admin")
	svc := newRiderTestService(t, db)
	admin := seedApplicant(t, db, "admin@example.com", constants.RoleAdmin)

	application, err := svc.Apply(ApplyInput{
		FullName:    "Admin Applicant",
		Email:       "admin@example.com",
		VehicleType: "car",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := svc.Approve(application.ID, "root@courier.local"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	var fresh models.User
	if err := db.First(&fresh, admin.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if fresh.Role != constants.RoleAdmin {
		t.Fatalf("admin role should be preserved, got %s", fresh.Role)
	}
}

func TestRejectDoesNotChangeRole(t *testing.T) {
	db := newRiderTestDB(t, "reject")
	svc := newRiderTestService(t, db)
	user := seedApplicant(t, db, "jane@example.com", constants.RoleUser)

	application, err := svc.Apply(ApplyInput{
		FullName:    "Jane Rider",
		Email:       "jane@example.com",
		VehicleType: "bike",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	decided, err := svc.Reject(application.ID, "admin@courier.local")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if decided.Status != constants.RiderStatusRejected {
		t.Fatalf("expected rejected, got %s", decided.Status)
	}

	var fresh models.User
	if err := db.First(&fresh, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if fresh.Role != constants.RoleUser {
		t.Fatalf("role should stay user, got %s", fresh.Role)
	}
}

func TestDecideTwiceFails(t *testing.T) {
	db := newRiderTestDB(t, "decide_twice")
	svc := newRiderTestService(t, db)
	seedApplicant(t, db, "jane@example.com", constants.RoleUser)

	application, err := svc.Apply(ApplyInput{
		FullName:    "Jane Rider",
		Email:       "jane@example.com",
		VehicleType: "bike",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := svc.Approve(application.ID, "admin@courier.local"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := svc.Reject(application.ID, "admin@courier.local"); !errors.Is(err, ErrRiderApplicationDecided) {
		t.Fatalf("expected ErrRiderApplicationDecided, got %v", err)
	}
}
