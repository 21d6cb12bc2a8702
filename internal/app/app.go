package app

import (
	"context"
	cfgclient "examcell_backend/internal/client"
	"examcell_backend/internal/config"
	"examcell_backend/internal/controller"
	"examcell_backend/internal/export"
	"examcell_backend/internal/qbank"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/service"
	"examcell_backend/pkg/configwatcher"
	"examcell_backend/pkg/database"
	"examcell_backend/pkg/logger"
	"examcell_backend/pkg/monitoring"
	"examcell_backend/pkg/security"
	"examcell_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reaperInterval = time.Minute

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	originPolicy    *security.OriginPolicy
	tracer          *sdktrace.TracerProvider
	stopBackground  context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	department   *repository.DepartmentRepository
	program      *repository.ProgramRepository
	course       *repository.CourseRepository
	regulation   *repository.RegulationRepository
	offering     *repository.CourseOfferingRepository
	questionBank *repository.QuestionBankRepository
	draft        *repository.DraftRepository
}

type services struct {
	auth           *service.AuthService
	user           *service.UserService
	academic       *service.AcademicService
	regulation     *service.RegulationService
	courseOffering *service.CourseOfferingService
	configuration  *service.ConfigurationService
	provider       qbank.ConfigurationProvider
	images         *service.ImageHostService
	questionBank   *service.QuestionBankService
	review         *service.ReviewService
	hub            *service.SessionHub
}

type controllers struct {
	auth           *controller.AuthController
	user           *controller.UserController
	academic       *controller.AcademicController
	regulation     *controller.RegulationController
	courseOffering *controller.CourseOfferingController
	questionBank   *controller.QuestionBankController
	review         *controller.ReviewController
	health         *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		department:   repository.NewDepartmentRepository(db),
		program:      repository.NewProgramRepository(db),
		course:       repository.NewCourseRepository(db),
		regulation:   repository.NewRegulationRepository(db),
		offering:     repository.NewCourseOfferingRepository(db),
		questionBank: repository.NewQuestionBankRepository(db),
		draft:        repository.NewDraftRepository(rdb, cfg.Session.DraftTTL()),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.academic = service.NewAcademicService(repos.department, repos.program, repos.course, repos.offering, repos.user)
	s.regulation = service.NewRegulationService(repos.regulation, repos.offering)
	s.courseOffering = service.NewCourseOfferingService(
		repos.offering,
		repos.department,
		repos.course,
		repos.program,
		repos.regulation,
		repos.user,
	)

	// 配置了外部地址时题库配置走 HTTP，否则直接查本地库
	s.configuration = service.NewConfigurationService(repos.offering, repos.regulation)
	s.provider = s.configuration
	if cfg.ConfigProvider.BaseURL != "" {
		s.provider = cfgclient.NewConfigurationClient(cfg.ConfigProvider.BaseURL, cfg.ConfigProvider.Timeout())
		logger.Log.Info("Using remote configuration provider", zap.String("baseURL", cfg.ConfigProvider.BaseURL))
	}

	s.images = service.NewImageHostService(cfg)
	s.hub = service.NewSessionHub()
	s.questionBank = service.NewQuestionBankService(
		qbank.NewLoader(s.provider),
		s.images,
		repos.questionBank,
		repos.offering,
		repos.draft,
		s.hub,
		cfg.Session.IdleTimeout(),
		cfg.Storage.MaxImageMB<<20,
	)
	s.review = service.NewReviewService(repos.questionBank, repos.department, export.NewXLSXRenderer(), cfg.Server.InstitutionName)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:           controller.NewAuthController(s.auth),
		user:           controller.NewUserController(s.user),
		academic:       controller.NewAcademicController(s.academic),
		regulation:     controller.NewRegulationController(s.regulation),
		courseOffering: controller.NewCourseOfferingController(s.courseOffering),
		questionBank:   controller.NewQuestionBankController(s.questionBank, s.provider, s.hub),
		review:         controller.NewReviewController(s.review),
		health:         controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	a.originPolicy = security.NewOriginPolicy(cfg.CORS.AllowedOrigins)
	router.Use(security.CORS(a.originPolicy))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// applyConfig 热更新只覆盖可在线生效的配置项
func (a *App) applyConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg)
	if a.originPolicy != nil {
		a.originPolicy.Update(newCfg.CORS.AllowedOrigins)
	}
	if newCfg.RateLimit != a.Config.RateLimit {
		logger.Log.Warn("Rate limit changes take effect after restart",
			zap.Int("maxRequests", newCfg.RateLimit.MaxRequests),
			zap.Int("windowMinutes", newCfg.RateLimit.WindowMinutes),
		)
	}
	a.Config.CORS = newCfg.CORS
	a.Config.Log = newCfg.Log
	for _, cb := range a.configCallbacks {
		cb(newCfg)
	}
}

func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	go s.questionBank.RunReaper(ctx, reaperInterval)

	go func() {
		configFile := filepath.Join("configs", "config.yaml")
		if err := configwatcher.WatchConfig(ctx, configFile, a.applyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// newApp 在已建立的连接上装配全部组件，测试使用 sqlite 和 miniredis 直接调用
func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}
	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	// 监控初始化
	monitoring.Init()

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		if err := database.Seed(db, cfg.Admin); err != nil {
			logger.Log.Fatal("Failed to seed database", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := newApp(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("examcell-questionbank", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.stopBackground = cancel
	app.startBackgroundTasks(ctx, app.services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	a.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	logger.Log.Info("Server exiting")
}

// Shutdown 停止后台任务，关闭编辑会话与 WebSocket 连接
func (a *App) Shutdown() {
	if a.stopBackground != nil {
		a.stopBackground()
	}
	if a.services == nil {
		return
	}
	a.services.questionBank.Shutdown()
	a.services.hub.Stop()
}
