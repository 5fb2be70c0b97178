package router

import (
	"fmt"
	"strings"

	"github.com/courier-next/internal/cache"
	"github.com/courier-next/internal/config"
	"github.com/courier-next/internal/constants"
	adminhandlers "github.com/courier-next/internal/http/handlers/admin"
	publichandlers "github.com/courier-next/internal/http/handlers/public"
	"github.com/courier-next/internal/logger"
	"github.com/courier-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按用户侧/管理端分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cn"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 支付回调（无需鉴权）
		apiV1.PATCH("/payments/success", publicHandler.ConfirmPayment)
		apiV1.POST("/payments/webhook/stripe", publicHandler.StripeWebhook)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/users/:email", publicHandler.GetUserByEmail)
			user.GET("/users/:email/role", publicHandler.GetUserRole)

			user.POST("/parcels", publicHandler.CreateParcel)
			user.POST("/parcels/quote", publicHandler.QuoteParcel)
			user.GET("/parcels", publicHandler.ListMyParcels)
			user.GET("/parcels/:id", publicHandler.GetParcel)
			user.DELETE("/parcels/:id", publicHandler.DeleteParcel)
			user.GET("/parcels/:id/payments", publicHandler.ListParcelPayments)

			user.POST("/payments/checkout-session", publicHandler.CreateCheckoutSession)
			user.GET("/payments", publicHandler.ListMyPayments)

			user.POST("/riders", publicHandler.ApplyRider)
			user.GET("/riders/me", publicHandler.GetMyRiderApplication)

			user.GET("/tracking/:tracking_id", publicHandler.TrackParcel)

			// 骑手接口
			rider := user.Group("")
			rider.Use(RequireRoles(constants.RoleRider, constants.RoleAdmin))
			{
				rider.GET("/parcels/pending", publicHandler.ListPendingParcels)
				rider.GET("/deliveries", publicHandler.ListMyDeliveries)
				rider.PATCH("/parcels/:id/pick", publicHandler.PickParcel)
				rider.PATCH("/parcels/:id/deliver", publicHandler.DeliverParcel)
			}
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), RequireRoles(constants.RoleAdmin))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PATCH("/users/:id", adminHandler.UpdateUserRole)

			admin.GET("/riders", adminHandler.ListRiderApplications)
			admin.PATCH("/riders/:id/approve", adminHandler.ApproveRiderApplication)
			admin.PATCH("/riders/:id/reject", adminHandler.RejectRiderApplication)

			admin.GET("/parcels", adminHandler.ListParcels)
			admin.PATCH("/parcels/:id/cancel", adminHandler.CancelParcel)

			admin.GET("/payments", adminHandler.ListPayments)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
