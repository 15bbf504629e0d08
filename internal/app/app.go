package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/client"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/config"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/handler"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/middleware"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/notify"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/repository"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/router"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/service"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/validator"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/alert"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/crypto"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/lock"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/logger"
)

// rotationLockTTL 密钥轮换分布式锁的过期时间, 覆盖最慢的全量重加密
const rotationLockTTL = 5 * time.Minute

// App 应用
type App struct {
	cfg         *config.Config
	db          *gorm.DB
	redisClient redis.UniversalClient
	httpServer  *http.Server
	engine      *gin.Engine

	clients    *client.Manager
	kafka      *notify.KafkaNotifier
	subscriber *notify.ReloadSubscriber
	configSvc  *service.ConfigService
}

// New 创建应用
func New(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *App {
	return &App{
		cfg:         cfg,
		db:          db,
		redisClient: redisClient,
	}
}

// Init 初始化应用
func (a *App) Init() error {
	if a.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	a.engine = gin.New()
	a.engine.Use(gin.Recovery())
	a.engine.Use(middleware.Logger())
	a.engine.Use(middleware.CORS())
	a.engine.Use(middleware.MetricsMiddleware())

	// 下游服务客户端
	a.clients = client.NewManager(&a.cfg.Clients)

	// 存储层
	repos := a.initRepositories()

	// 服务层
	services, err := a.initServices(repos)
	if err != nil {
		return err
	}

	// 处理器
	handlers := a.initHandlers(services)

	authMiddleware := middleware.NewAuthMiddleware(services.Auth)
	router.SetupRouter(a.engine, handlers, authMiddleware, services.Audit)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("app initialized",
		zap.Int("port", a.cfg.Server.Port),
		zap.String("mode", a.cfg.Server.Mode))

	return nil
}

// repositories 存储层
type repositories struct {
	Admin    *repository.AdminRepository
	Config   *repository.ConfigRepository
	History  *repository.HistoryRepository
	AuditLog *repository.AuditLogRepository
	Workflow *repository.WorkflowRepository
	MailRule *repository.MailRuleRepository
}

// initRepositories 初始化存储层
func (a *App) initRepositories() *repositories {
	return &repositories{
		Admin:    repository.NewAdminRepository(a.db),
		Config:   repository.NewConfigRepository(a.db),
		History:  repository.NewHistoryRepository(a.db),
		AuditLog: repository.NewAuditLogRepository(a.db),
		Workflow: repository.NewWorkflowRepository(a.db),
		MailRule: repository.NewMailRuleRepository(a.db),
	}
}

// services 服务层
type services struct {
	Auth     *service.AuthService
	Admin    *service.AdminService
	Config   *service.ConfigService
	Workflow *service.WorkflowService
	MailRule *service.MailRuleService
	Audit    *service.AuditService
}

// initServices 初始化服务层
func (a *App) initServices(repos *repositories) (*services, error) {
	auditSvc := service.NewAuditService(repos.AuditLog)

	authSvc := service.NewAuthService(repos.Admin, repos.AuditLog, &service.AuthConfig{
		JWTSecret:    a.cfg.JWT.Secret,
		JWTExpire:    time.Duration(a.cfg.JWT.ExpireHours) * time.Hour,
		MaxAttempts:  a.cfg.JWT.MaxAttempts,
		LockDuration: time.Duration(a.cfg.JWT.LockDurationMin) * time.Minute,
	})

	adminSvc := service.NewAdminService(repos.Admin, repos.AuditLog)

	configSvc, err := a.initConfigService(repos)
	if err != nil {
		return nil, err
	}
	a.configSvc = configSvc

	workflowSvc := service.NewWorkflowService(repos.Workflow, repos.AuditLog, configSvc)
	mailRuleSvc := service.NewMailRuleService(repos.MailRule, repos.AuditLog)

	return &services{
		Auth:     authSvc,
		Admin:    adminSvc,
		Config:   configSvc,
		Workflow: workflowSvc,
		MailRule: mailRuleSvc,
		Audit:    auditSvc,
	}, nil
}

// initConfigService 组装配置中心: 加密器 + 校验器 + 通知器 + 分布式轮换锁
func (a *App) initConfigService(repos *repositories) (*service.ConfigService, error) {
	salt := a.cfg.Crypto.KDFSalt
	encryptor, err := crypto.NewEncryptor(a.cfg.Crypto.MasterKey, salt)
	if err != nil {
		return nil, fmt.Errorf("init encryptor: %w", err)
	}
	factory := func(masterKey string) (service.Encryptor, error) {
		return crypto.NewEncryptor(masterKey, salt)
	}

	notifiers := []service.ChangeNotifier{
		notify.NewAuditNotifier(repos.AuditLog),
		notify.NewReloadNotifier(a.redisClient, notify.DefaultReloadChannel),
	}

	if len(a.cfg.Kafka.Brokers) > 0 {
		kafkaNotifier, err := notify.NewKafkaNotifier(&notify.KafkaConfig{
			Brokers:  a.cfg.Kafka.Brokers,
			Topic:    a.cfg.Kafka.Topic,
			ClientID: a.cfg.Kafka.ClientID,
		})
		if err != nil {
			return nil, fmt.Errorf("init kafka notifier: %w", err)
		}
		a.kafka = kafkaNotifier
		notifiers = append(notifiers, kafkaNotifier)
	}

	if a.cfg.Alert.WebhookURL != "" {
		alerter := alert.NewAlerter(&alert.Config{
			Enabled:        true,
			Environment:    a.cfg.Service.Env,
			ServiceName:    a.cfg.Service.Name,
			WebhookURL:     a.cfg.Alert.WebhookURL,
			WebhookType:    a.cfg.Alert.WebhookType,
			WebhookTimeout: a.cfg.Alert.TimeoutSeconds,
		})
		notifiers = append(notifiers, notify.NewAlertNotifier(alerter))
	}

	locker := lock.NewRedisLocker(a.redisClient, "doc-admin:lock:", rotationLockTTL)

	return service.NewConfigService(
		repos.Config,
		repos.History,
		validator.New(),
		encryptor,
		factory,
		notifiers,
		locker,
		a.cfg.Store.CacheTTL(),
	), nil
}

// initHandlers 初始化处理器
func (a *App) initHandlers(svcs *services) *router.Handlers {
	return &router.Handlers{
		Auth:     handler.NewAuthHandler(svcs.Auth),
		Admin:    handler.NewAdminHandler(svcs.Admin),
		Config:   handler.NewConfigHandler(svcs.Config),
		Workflow: handler.NewWorkflowHandler(svcs.Workflow, a.clients.Extraction()),
		MailRule: handler.NewMailRuleHandler(svcs.MailRule),
		Audit:    handler.NewAuditHandler(svcs.Audit),
		Health:   handler.NewHealthHandler(a.db, a.redisClient, a.clients),
	}
}

// Run 运行应用: 先订阅重载广播, 再启动 HTTP 服务
func (a *App) Run() error {
	a.subscriber = notify.NewReloadSubscriber(a.redisClient, notify.DefaultReloadChannel)
	subCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.subscriber.Subscribe(subCtx, a.configSvc.HandleRemoteEvent); err != nil {
		return fmt.Errorf("subscribe reload channel: %w", err)
	}

	logger.Info("starting HTTP server", zap.String("addr", a.httpServer.Addr))
	return a.httpServer.ListenAndServe()
}

// Shutdown 关闭应用
func (a *App) Shutdown(ctx context.Context) error {
	logger.Info("shutting down HTTP server")

	if a.subscriber != nil {
		if err := a.subscriber.Close(); err != nil {
			logger.Warn("close reload subscriber failed", zap.Error(err))
		}
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			logger.Warn("close kafka notifier failed", zap.Error(err))
		}
	}
	if a.clients != nil {
		a.clients.Close()
	}

	return a.httpServer.Shutdown(ctx)
}

// Engine 获取 Gin 引擎 (用于测试)
func (a *App) Engine() *gin.Engine {
	return a.engine
}
