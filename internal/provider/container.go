package provider

import (
	"github.com/courier-next/internal/cache"
	"github.com/courier-next/internal/config"
	"github.com/courier-next/internal/gateway/stripe"
	"github.com/courier-next/internal/logger"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/queue"
	"github.com/courier-next/internal/repository"
	"github.com/courier-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo     repository.UserRepository
	ParcelRepo   repository.ParcelRepository
	PaymentRepo  repository.PaymentRepository
	RiderRepo    repository.RiderRepository
	TrackingRepo repository.TrackingRepository

	// Services
	AuthService     *service.AuthService
	UserService     *service.UserService
	EmailService    *service.EmailService
	ParcelService   *service.ParcelService
	DeliveryService *service.DeliveryService
	PaymentService  *service.PaymentService
	RiderService    *service.RiderService
	TrackingService *service.TrackingService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ParcelRepo = repository.NewParcelRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.RiderRepo = repository.NewRiderRepository(db)
	c.TrackingRepo = repository.NewTrackingRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.UserService = service.NewUserService(c.UserRepo)
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.ParcelService = service.NewParcelService(c.ParcelRepo)
	c.DeliveryService = service.NewDeliveryService(c.ParcelRepo, c.TrackingRepo, c.QueueClient)
	c.RiderService = service.NewRiderService(models.DB, c.RiderRepo, c.UserRepo, c.QueueClient)
	c.TrackingService = service.NewTrackingService(c.ParcelRepo, c.TrackingRepo)

	var paymentGateway service.PaymentGateway
	gateway, err := stripe.NewClient(stripe.Config{
		SecretKey:               c.Config.Stripe.SecretKey,
		WebhookSecret:           c.Config.Stripe.WebhookSecret,
		SuccessURL:              c.Config.Stripe.SuccessURL,
		CancelURL:               c.Config.Stripe.CancelURL,
		APIBaseURL:              c.Config.Stripe.APIBaseURL,
		Currency:                c.Config.Stripe.Currency,
		WebhookToleranceSeconds: c.Config.Stripe.WebhookToleranceSeconds,
	})
	if err != nil {
		logger.Warnw("provider_init_stripe_gateway_failed", "error", err)
	} else {
		paymentGateway = gateway
	}
	c.PaymentService = service.NewPaymentService(
		c.Config,
		models.DB,
		paymentGateway,
		c.ParcelRepo,
		c.PaymentRepo,
		c.TrackingRepo,
		c.QueueClient,
	)
}
