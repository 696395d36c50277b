package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/internal/controller"
	"vocab_backend/internal/repository"
	"vocab_backend/internal/service"
	"vocab_backend/internal/util"
	"vocab_backend/pkg/configwatcher"
	"vocab_backend/pkg/database"
	"vocab_backend/pkg/logger"
	"vocab_backend/pkg/monitoring"
	"vocab_backend/pkg/security"
	"vocab_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	scheduler       *gocron.Scheduler
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	session     *repository.SessionRepository
	progress    *repository.ProgressRepository
	period      *repository.PeriodPointsRepository
	mastery     *repository.MasteryRepository
	bookmark    *repository.BookmarkRepository
	catalog     *repository.CatalogRepository
	leaderboard *repository.LeaderboardRepository
}

type services struct {
	calendar      *service.Calendar
	storage       *service.StorageService
	pronunciation *service.PronunciationService
	selector      *service.ItemSelector
	scoring       *service.ScoringService
	practice      *service.PracticeService
	leaderboard   *service.LeaderboardService
	stats         *service.StatsService
	bookmark      *service.BookmarkService
	user          *service.UserService
}

type controllers struct {
	practice    *controller.PracticeController
	speaking    *controller.SpeakingController
	leaderboard *controller.LeaderboardController
	user        *controller.UserController
	stats       *controller.StatsController
	bookmark    *controller.BookmarkController
	health      *controller.HealthController
}

// RegisterConfigCallback 配置文件变更后回调
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		session:     repository.NewSessionRepository(db),
		progress:    repository.NewProgressRepository(db),
		period:      repository.NewPeriodPointsRepository(db),
		mastery:     repository.NewMasteryRepository(db),
		bookmark:    repository.NewBookmarkRepository(db),
		catalog:     repository.NewCatalogRepository(db),
		leaderboard: repository.NewLeaderboardRepository(db, rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	loc, _ := cfg.Scoring.Location()
	s.calendar = service.NewCalendar(loc)

	s.storage = service.NewStorageService(cfg)
	s.pronunciation = service.NewPronunciationService(cfg.Pronunciation)
	s.selector = service.NewItemSelector(repos.catalog, repos.bookmark)
	s.scoring = service.NewScoringService(
		repos.user,
		repos.period,
		repos.mastery,
		repos.leaderboard,
		s.calendar,
		cfg.Scoring,
	)
	s.leaderboard = service.NewLeaderboardService(repos.leaderboard, s.calendar, cfg.Practice)

	s.practice = service.NewPracticeService(service.PracticeDeps{
		Users:    repos.user,
		Catalog:  repos.catalog,
		Sessions: repos.session,
		Progress: repos.progress,
		Selector: s.selector,
		Scoring:  s.scoring,
		Scorer:   s.pronunciation,
		Audio:    s.storage,
		Ranks:    s.leaderboard,
		Calendar: s.calendar,
	}, cfg.Practice)

	s.stats = service.NewStatsService(repos.session, repos.progress, repos.mastery)
	s.bookmark = service.NewBookmarkService(repos.bookmark, repos.catalog)
	s.user = service.NewUserService(repos.user, repos.period, s.leaderboard, s.calendar)

	// 积分规则和时区支持热更新，其余配置需要重启
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.scoring.UpdateRules(newCfg.Scoring)
		logger.Log.Info("Scoring rules reloaded", zap.String("timezone", newCfg.Scoring.Timezone))
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		practice:    controller.NewPracticeController(s.practice),
		speaking:    controller.NewSpeakingController(s.storage),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		user:        controller.NewUserController(s.user),
		stats:       controller.NewStatsController(s.stats),
		bookmark:    controller.NewBookmarkController(s.bookmark),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.Server.Mode == gin.ReleaseMode {
		level = gormlogger.Error
	}
	db, err := database.Open(&cfg.Database, level)
	if err != nil {
		return nil, err
	}

	// release 模式默认跳过自动迁移，需显式 -migrate
	if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		logger.Log.Info("Database migration completed")
	}
	return db, nil
}

func NewApp(cfg *config.Config, configDir string) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DB:        db,
	}
	if cfg.MigrateOnly {
		return app
	}

	// Redis 只用于排行榜缓存，不可用时直接查库
	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	if cfg.Audio.Transcode {
		if version, err := util.GetFFmpegVersion(); err != nil {
			logger.Log.Warn("ffmpeg not found, audio transcoding disabled", zap.Error(err))
			cfg.Audio.Transcode = false
		} else {
			logger.Log.Info("ffmpeg detected", zap.String("version", version))
		}
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	repos := app.initRepositories(db, app.Redis)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, db, app.Redis)

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode != gin.ReleaseMode {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.scheduler = app.startJobs(app.services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		configFile := filepath.Join(a.ConfigDir, "config.yaml")
		err := configwatcher.WatchConfig(watchCtx, configFile, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Warn("Config watcher stopped", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
