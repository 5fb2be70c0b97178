package main

import (
	"time"

	"github.com/courier-next/internal/config"
	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/logger"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/pricing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加演示账号
	users := []struct {
		Email string
		Name  string
		Role  string
	}{
		{Email: "sender@example.com", Name: "Demo Sender", Role: constants.RoleUser},
		{Email: "rider@example.com", Name: "Demo Rider", Role: constants.RoleRider},
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}
	for _, u := range users {
		user := models.User{
			Email:        u.Email,
			PasswordHash: string(hash),
			DisplayName:  u.Name,
			Role:         u.Role,
			Status:       constants.UserStatusActive,
		}
		if err := models.DB.Where("email = ?", u.Email).FirstOrCreate(&user).Error; err != nil {
			stdLog.Fatalf("Failed to seed user %s: %v", u.Email, err)
		}
	}

	// 添加演示包裹
	parcels := []struct {
		PackageType   string
		WeightKG      string
		DeclaredValue string
		Fragile       bool
		Receiver      string
	}{
		{PackageType: "document", WeightKG: "0.50", DeclaredValue: "0", Receiver: "Alice Receiver"},
		{PackageType: "electronics", WeightKG: "3.20", DeclaredValue: "1500.00", Fragile: true, Receiver: "Bob Receiver"},
	}
	for _, p := range parcels {
		weight := decimal.RequireFromString(p.WeightKG)
		declared := decimal.RequireFromString(p.DeclaredValue)
		quote, err := pricing.Calculate(pricing.Input{
			PackageType:   p.PackageType,
			WeightKG:      weight,
			DeclaredValue: declared,
			Fragile:       p.Fragile,
		})
		if err != nil {
			stdLog.Fatalf("Failed to price demo parcel: %v", err)
		}
		parcel := models.Parcel{
			SenderName:      "Demo Sender",
			SenderEmail:     "sender@example.com",
			PickupAddress:   "1 Demo Street",
			ReceiverName:    p.Receiver,
			DeliveryAddress: "2 Demo Avenue",
			PackageType:     p.PackageType,
			WeightKG:        models.NewMoneyFromDecimal(weight),
			DeclaredValue:   models.NewMoneyFromDecimal(declared),
			Fragile:         p.Fragile,
			DeliverySpeed:   "standard",
			Cost:            models.NewMoneyFromDecimal(quote.Total),
			PaymentStatus:   constants.ParcelPaymentUnpaid,
			DeliveryStatus:  constants.DeliveryStatusNone,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		if err := models.DB.Create(&parcel).Error; err != nil {
			stdLog.Fatalf("Failed to seed parcel: %v", err)
		}
	}

	stdLog.Printf("Seed data created: %d users, %d parcels", len(users), len(parcels))
}
