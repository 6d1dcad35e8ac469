package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/fogelran/people-match/internal/config"
	"github.com/fogelran/people-match/internal/domain/repository"
	"github.com/fogelran/people-match/internal/repository/memory"
	pgRepo "github.com/fogelran/people-match/internal/repository/postgres"
	redisRepo "github.com/fogelran/people-match/internal/repository/redis"
	"github.com/fogelran/people-match/internal/service"
	"github.com/fogelran/people-match/pkg/auth"
	"github.com/fogelran/people-match/pkg/database"
)

// repositories — набор хранилищ выбранного драйвера
type repositories struct {
	users     repository.UserRepository
	questions repository.QuestionRepository
	ledger    repository.LedgerRepository
	snapshots repository.SnapshotRepository
}

func main() {
	flags := pflag.NewFlagSet("people-match", pflag.ExitOnError)
	config.RegisterFlags(flags)
	flags.Parse(os.Args[1:])

	// Путь к конфигу: флаг, затем CONFIG_PATH
	configPath, _ := flags.GetString("config")
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" && !flags.Changed("config") {
		configPath = envPath
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode

	// Создаем контекст с отменой для инициализации и фоновых операций
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем хранилище
	var db *gorm.DB
	var repos repositories
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Println("Хранилище: память процесса (данные не переживут перезапуск)")
		store := memory.NewStore()
		repos = repositories{
			users:     store.Users(),
			questions: store.Questions(),
			ledger:    store.Ledger(),
			snapshots: store.Snapshots(),
		}
	default:
		db, err = database.NewPostgresDB(cfg.Database.PostgresConnectionString(), isProduction, database.DefaultPoolConfig())
		if err != nil {
			log.Printf("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		if err := database.MigrateDB(db, "migrations"); err != nil {
			log.Printf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
		repos = repositories{
			users:     pgRepo.NewUserRepo(db),
			questions: pgRepo.NewQuestionRepo(db),
			ledger:    pgRepo.NewLedgerRepo(db),
			snapshots: pgRepo.NewSnapshotRepo(db),
		}
	}

	// Кеш подбора пар: Redis, если включен, иначе память процесса
	var redisClient redis.UniversalClient
	var cacheRepo repository.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err = database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		log.Println("Successfully connected to Redis")

		redisCache, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
		if err != nil {
			log.Printf("Failed to initialize CacheRepo: %v", err)
			os.Exit(1)
		}
		cacheRepo = redisCache
	} else {
		log.Println("Redis выключен: кеш в памяти процесса, rate limiting не применяется")
		cacheRepo = memory.NewCacheRepo()
	}

	// Инициализируем сервисы
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	authService, err := service.NewAuthService(repos.users, jwtService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	matchingService, err := service.NewMatchingService(
		repos.questions,
		repos.ledger,
		repos.snapshots,
		cacheRepo,
		cfg.Matching.ToMatchingConfig(),
	)
	if err != nil {
		log.Printf("Failed to initialize MatchingService: %v", err)
		os.Exit(1)
	}

	if cfg.Storage.SeedQuestions {
		inserted, err := matchingService.SeedQuestions(ctx, service.DefaultSeedQuestions)
		if err != nil {
			log.Printf("Failed to seed questions: %v", err)
			os.Exit(1)
		}
		log.Printf("Стартовые вопросы: добавлено %d из %d", inserted, len(service.DefaultSeedQuestions))
	}

	router := newRouter(cfg, routerDeps{
		authService:     authService,
		matchingService: matchingService,
		redisClient:     redisClient,
		isProduction:    isProduction,
	})

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			cancel()
		}
	}()

	// Ждем SIGINT/SIGTERM или падения сервера
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")
	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	log.Println("Server exited properly")
}
