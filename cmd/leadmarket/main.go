package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	dealerapp "github.com/wyfcoding/leadmarket/internal/dealer/application"
	dealerdomain "github.com/wyfcoding/leadmarket/internal/dealer/domain"
	dealercache "github.com/wyfcoding/leadmarket/internal/dealer/infrastructure/cache"
	dealermysql "github.com/wyfcoding/leadmarket/internal/dealer/infrastructure/persistence/mysql"
	dealerhttp "github.com/wyfcoding/leadmarket/internal/dealer/interfaces/http"
	leadapp "github.com/wyfcoding/leadmarket/internal/lead/application"
	leaddomain "github.com/wyfcoding/leadmarket/internal/lead/domain"
	leadmessaging "github.com/wyfcoding/leadmarket/internal/lead/infrastructure/messaging"
	leadmysql "github.com/wyfcoding/leadmarket/internal/lead/infrastructure/persistence/mysql"
	leadhttp "github.com/wyfcoding/leadmarket/internal/lead/interfaces/http"
	lockapp "github.com/wyfcoding/leadmarket/internal/lock/application"
	lockdomain "github.com/wyfcoding/leadmarket/internal/lock/domain"
	lockmessaging "github.com/wyfcoding/leadmarket/internal/lock/infrastructure/messaging"
	lockmysql "github.com/wyfcoding/leadmarket/internal/lock/infrastructure/persistence/mysql"
	lockhttp "github.com/wyfcoding/leadmarket/internal/lock/interfaces/http"
	notifapp "github.com/wyfcoding/leadmarket/internal/notification/application"
	notifdomain "github.com/wyfcoding/leadmarket/internal/notification/domain"
	notifmysql "github.com/wyfcoding/leadmarket/internal/notification/infrastructure/persistence/mysql"
	notifsmtp "github.com/wyfcoding/leadmarket/internal/notification/infrastructure/smtp"
	notifhttp "github.com/wyfcoding/leadmarket/internal/notification/interfaces/http"
	pricingapp "github.com/wyfcoding/leadmarket/internal/pricing/application"
	pricingdomain "github.com/wyfcoding/leadmarket/internal/pricing/domain"
	pricingmessaging "github.com/wyfcoding/leadmarket/internal/pricing/infrastructure/messaging"
	pricingmysql "github.com/wyfcoding/leadmarket/internal/pricing/infrastructure/persistence/mysql"
	pricinghttp "github.com/wyfcoding/leadmarket/internal/pricing/interfaces/http"
	purchaseapp "github.com/wyfcoding/leadmarket/internal/purchase/application"
	purchasedomain "github.com/wyfcoding/leadmarket/internal/purchase/domain"
	purchasemessaging "github.com/wyfcoding/leadmarket/internal/purchase/infrastructure/messaging"
	purchasemysql "github.com/wyfcoding/leadmarket/internal/purchase/infrastructure/persistence/mysql"
	"github.com/wyfcoding/leadmarket/internal/purchase/infrastructure/payment"
	purchasehttp "github.com/wyfcoding/leadmarket/internal/purchase/interfaces/http"
	"github.com/wyfcoding/leadmarket/pkg/cache"
	"github.com/wyfcoding/leadmarket/pkg/config"
	"github.com/wyfcoding/leadmarket/pkg/db"
	"github.com/wyfcoding/leadmarket/pkg/logger"
	"github.com/wyfcoding/leadmarket/pkg/metrics"
	"github.com/wyfcoding/leadmarket/pkg/middleware"
	"github.com/wyfcoding/leadmarket/pkg/mq"
	"github.com/wyfcoding/leadmarket/pkg/outbox"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/leadmarket/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	log := logger.Get()

	ctx := context.Background()

	// 3. Database
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "connect db failed", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&leaddomain.Lead{},
		&lockdomain.LeadLock{},
		&lockdomain.LockoutPeriod{},
		&pricingdomain.Settings{},
		&purchasedomain.Purchase{},
		&purchasedomain.CheckoutSession{},
		&purchasedomain.WebhookEvent{},
		&dealerdomain.Dealer{},
		&notifdomain.EmailTemplate{},
		&notifdomain.Notification{},
		&outbox.Message{},
	); err != nil {
		logger.Fatal(ctx, "migrate db failed", "error", err)
	}

	// 4. Redis
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "connect redis failed", "error", err)
	}
	defer redisCache.Close()

	// 5. Kafka + Outbox
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		GroupID:      cfg.Kafka.GroupID,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "create kafka producer failed", "error", err)
	}
	defer producer.Close()

	outboxManager := outbox.NewManager(database.DB, producer, time.Second)

	// 6. Metrics
	m := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "register metrics failed", "error", err)
		}
		go func() {
			if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				logger.Error(ctx, "metrics server stopped", "error", err)
			}
		}()
	}

	// 7. Repositories
	leadRepo := leadmysql.NewLeadRepository(database.DB)
	lockRepo := lockmysql.NewLockRepository(database.DB)
	periodRepo := lockmysql.NewLockoutPeriodRepository(database.DB)
	settingsRepo := pricingmysql.NewSettingsRepository(database.DB)
	purchaseRepo := purchasemysql.NewPurchaseRepository(database.DB)
	sessionRepo := purchasemysql.NewCheckoutSessionRepository(database.DB)
	webhookRepo := purchasemysql.NewWebhookEventRepository(database.DB)
	dealerRepo := dealermysql.NewDealerRepository(database.DB)
	templateRepo := notifmysql.NewTemplateRepository(database.DB)
	notificationRepo := notifmysql.NewNotificationRepository(database.DB)
	hiddenStore := dealercache.NewHiddenLeadStore(redisCache)

	seed(ctx, periodRepo, dealerRepo, templateRepo)

	// 8. Event publishers
	leadPublisher := leadmessaging.NewOutboxPublisher(outboxManager)
	lockPublisher := lockmessaging.NewOutboxPublisher(outboxManager)
	pricingPublisher := pricingmessaging.NewOutboxPublisher(outboxManager)
	purchasePublisher := purchasemessaging.NewOutboxPublisher(outboxManager)

	// 9. Application services
	notificationService := notifapp.NewNotificationService(templateRepo, notificationRepo, notifsmtp.NewSender(cfg.SMTP), m, log)
	templateService := notifapp.NewTemplateService(templateRepo, log)

	settingsService := pricingapp.NewSettingsService(settingsRepo, redisCache, pricingPublisher, log)

	temporaryDuration := time.Duration(cfg.Lock.TemporaryMinutes) * time.Minute
	lockService := lockapp.NewLockService(lockRepo, periodRepo, lockPublisher, temporaryDuration, m, log)
	periodService := lockapp.NewPeriodService(periodRepo, log)

	authService := dealerapp.NewAuthService(dealerRepo, cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, log)
	accountService := dealerapp.NewAccountService(dealerRepo, log)
	hiddenService := dealerapp.NewHiddenLeadService(hiddenStore, log)

	paymentClient := payment.NewClient(cfg.Payment)
	purchaseQuery := purchaseapp.NewPurchaseQueryService(purchaseRepo, leadRepo, log)

	intakeService := leadapp.NewIntakeService(leadRepo, leadPublisher, notificationService, m, log)
	marketplaceQuery := leadapp.NewMarketplaceQueryService(leadRepo, lockService, purchaseQuery, settingsService, hiddenService, m, log)
	adminLeadService := leadapp.NewAdminLeadService(leadRepo, leadPublisher, log)

	checkoutService := purchaseapp.NewCheckoutService(
		purchaseRepo, sessionRepo, webhookRepo,
		marketplaceQuery, paymentClient, purchasePublisher,
		dealerRepo, notificationService, m,
		cfg.Payment.SuccessURL, cfg.Payment.CancelURL, log)

	// 10. HTTP
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(m),
	)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	intakeHandler := leadhttp.NewIntakeHandler(intakeService)
	marketplaceHandler := leadhttp.NewMarketplaceHandler(marketplaceQuery, hiddenService)
	adminLeadHandler := leadhttp.NewAdminLeadHandler(adminLeadService)
	lockHandler := lockhttp.NewLockHandler(lockService, periodService)
	settingsHandler := pricinghttp.NewSettingsHandler(settingsService)
	purchaseHandler := purchasehttp.NewPurchaseHandler(checkoutService, purchaseQuery)
	dealerHandler := dealerhttp.NewDealerHandler(authService, accountService)
	notificationHandler := notifhttp.NewNotificationHandler(templateService, notificationService)

	v1 := r.Group("/v1")

	intakeHandler.RegisterRoutes(v1)
	dealerHandler.RegisterPublicRoutes(v1)
	purchaseHandler.RegisterPublicRoutes(v1)

	dealerGroup := v1.Group("", middleware.AuthRequired(cfg.Auth.JWTSecret))
	marketplaceHandler.RegisterRoutes(dealerGroup)
	lockHandler.RegisterRoutes(dealerGroup)
	purchaseHandler.RegisterRoutes(dealerGroup)
	dealerHandler.RegisterRoutes(dealerGroup)

	adminGroup := v1.Group("/admin", middleware.AuthRequired(cfg.Auth.JWTSecret), middleware.AdminRequired())
	adminLeadHandler.RegisterRoutes(adminGroup)
	lockHandler.RegisterAdminRoutes(adminGroup)
	settingsHandler.RegisterRoutes(adminGroup)
	dealerHandler.RegisterAdminRoutes(adminGroup)
	notificationHandler.RegisterAdminRoutes(adminGroup)

	// 11. Start
	relayCtx, stopRelay := context.WithCancel(context.Background())
	go outboxManager.Run(relayCtx)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		logger.Info(ctx, "Starting HTTP server", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "http server failed", "error", err)
		}
	}()

	// 12. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "Shutting down")
	stopRelay()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "http shutdown failed", "error", err)
	}
	logger.Info(ctx, "Server stopped")
}

// seed 初始化锁定目录、admin 账号与内置邮件模板
func seed(ctx context.Context, periods lockdomain.LockoutPeriodRepository, dealers dealerdomain.DealerRepository, templates notifdomain.TemplateRepository) {
	existing, err := periods.List(ctx, false)
	if err == nil && len(existing) == 0 {
		logger.Info(ctx, "Seeding lockout periods")
		defaults := []*lockdomain.LockoutPeriod{
			{Name: "24 Hours", Hours: 24, Fee: decimalFromString("4.99"), IsActive: true},
			{Name: "1 Week", Hours: 168, Fee: decimalFromString("9.99"), IsActive: true},
			{Name: "Permanent", Hours: 0, Fee: decimalFromString("19.99"), IsActive: true},
		}
		for _, p := range defaults {
			if err := periods.Save(ctx, p); err != nil {
				logger.Warn(ctx, "failed to seed lockout period", "name", p.Name, "error", err)
			}
		}
	}

	admin, err := dealers.GetByEmail(ctx, "admin@leadmarket.local")
	if err == nil && admin == nil {
		logger.Info(ctx, "Seeding admin account")
		hash, err := bcrypt.GenerateFromPassword([]byte("change-me-now"), bcrypt.DefaultCost)
		if err == nil {
			err = dealers.Save(ctx, &dealerdomain.Dealer{
				Email:        "admin@leadmarket.local",
				PasswordHash: string(hash),
				Name:         "Administrator",
				Role:         middleware.RoleAdmin,
			})
		}
		if err != nil {
			logger.Warn(ctx, "failed to seed admin account", "error", err)
		}
	}

	tmpl, err := templates.GetByName(ctx, notifdomain.TemplateLeadSubmitted)
	if err == nil && tmpl == nil {
		logger.Info(ctx, "Seeding email templates")
		defaults := []*notifdomain.EmailTemplate{
			{
				Name:     notifdomain.TemplateLeadSubmitted,
				Subject:  "We received your application",
				Body:     "Hello {{.FullName}},\n\nyour vehicle loan application has been received. Reference: {{.LeadID}}.",
				IsActive: true,
			},
			{
				Name:     notifdomain.TemplatePurchaseReceipt,
				Subject:  "Your lead purchase receipt",
				Body:     "You purchased {{.LeadCount}} lead(s) for a total of {{.Amount}} EUR.",
				IsActive: true,
			},
		}
		for _, t := range defaults {
			if err := templates.Save(ctx, t); err != nil {
				logger.Warn(ctx, "failed to seed email template", "name", t.Name, "error", err)
			}
		}
	}
}

func decimalFromString(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}
