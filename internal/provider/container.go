package provider

import (
	"time"

	"github.com/creatorhub/internal/authz"
	"github.com/creatorhub/internal/cache"
	"github.com/creatorhub/internal/config"
	"github.com/creatorhub/internal/logger"
	"github.com/creatorhub/internal/models"
	"github.com/creatorhub/internal/queue"
	"github.com/creatorhub/internal/repository"
	"github.com/creatorhub/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo          repository.AdminRepository
	UserRepo           repository.UserRepository
	OrderRepo          repository.OrderRepository
	ProductRepo        repository.ProductRepository
	SettingRepo        repository.SettingRepository
	AffiliateClickRepo repository.AffiliateClickRepository
	AuthzAuditLogRepo  repository.AuthzAuditLogRepository

	// Services
	AuthzService      *authz.Service
	AuthService       *service.AuthService
	UserAuthService   *service.UserAuthService
	ProductService    *service.ProductService
	SettingService    *service.SettingService
	OrderService      *service.OrderService
	ReferralService   *service.ReferralService
	CommissionService *service.CommissionService
	AuthzAuditService *service.AuthzAuditService
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
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AffiliateClickRepo = repository.NewAffiliateClickRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	attributionStore := cache.NewRedisAttributionStore(
		time.Duration(c.Config.Referral.AttributionTTLHours) * time.Hour,
	)

	// OrderExpireEnqueuer 参数必须避免把 nil *queue.Client 包成非空接口
	var expireEnqueuer service.OrderExpireEnqueuer
	if c.QueueClient != nil {
		expireEnqueuer = c.QueueClient
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.ProductService = service.NewProductService(c.ProductRepo)
	c.ReferralService = service.NewReferralService(attributionStore, c.UserRepo, c.AffiliateClickRepo)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.UserRepo, attributionStore, expireEnqueuer, c.SettingService, c.Config.Order.PaymentExpireHours)
	c.CommissionService = service.NewCommissionService(c.OrderRepo, c.UserRepo, c.SettingService)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
}
