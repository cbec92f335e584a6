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

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"story-server/internal/config"
	"story-server/internal/database"
	delivery "story-server/internal/delivery/http"
	"story-server/internal/delivery/http/middleware"
	"story-server/internal/export"
	"story-server/internal/repository"
	"story-server/internal/service"
	"story-server/pkg/ai"
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		// Логируем как предупреждение, т.к. в production .env может не использоваться
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	// Инициализация логгера
	initLogger()

	// Парсинг флагов командной строки
	env := flag.String("env", "development", "Environment: development, production")
	flag.Parse()

	// Загрузка конфигурации
	cfg, err := config.Load(*env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Инициализация соединения с БД
	log.Info().Msg("connecting to database...")
	dbPool, err := initDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbPool.Close()
	log.Info().Msg("database connection established")

	// Инициализация sqlx.DB
	sqlxDB, err := initSqlxDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sqlx database")
	}
	defer sqlxDB.Close()

	// Применяем миграции
	log.Info().Msg("applying database migrations...")
	if err := database.ApplyMigrations(dbPool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}
	log.Info().Msg("database migrations applied successfully")

	// Клиент провайдера генерации. Ключ API читается из окружения при
	// каждом вызове, поэтому здесь его отсутствие ещё не ошибка.
	aiClient := ai.New()

	// Инициализация репозитория и сервисов
	storyRepo := repository.NewStoryRepository(dbPool, sqlxDB)
	storyService := service.NewStoryService(storyRepo, aiClient, cfg.AI, cfg.Assets.GeneratedDir)
	pdfRenderer := export.NewPDFRenderer(cfg.Assets.FontsDir)

	// Инициализация HTTP обработчиков
	handlers := delivery.New(storyService, pdfRenderer)

	// Настройка маршрутов
	router := mux.NewRouter()
	router.Use(middleware.RequestID)
	handlers.RegisterRoutes(router)

	// Сгенерированные иллюстрации раздаются как статика
	router.PathPrefix("/generated/").Handler(
		http.StripPrefix("/generated/", http.FileServer(http.Dir(cfg.Assets.GeneratedDir))))

	// Настройка CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	// Создание HTTP сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Настройка плавного завершения
	gracefulShutdown(server)
}

// initLogger настраивает глобальный логгер
func initLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Caller().Logger()

	// В режиме разработки используем более читаемый вывод
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	}

	// Настройка уровня логирования
	logLevel := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logLevel = lvl
	}
	zerolog.SetGlobalLevel(logLevel)
}

// initDatabase инициализирует соединение с базой данных
func initDatabase(cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	ctx := context.Background()
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleMinutes) * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	// Проверка соединения
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// initSqlxDatabase инициализирует соединение с базой данных с использованием sqlx
func initSqlxDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using sqlx: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections / 2)
	db.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleMinutes) * time.Minute)

	// Проверка соединения
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database using sqlx: %w", err)
	}

	return db, nil
}

// gracefulShutdown обеспечивает плавное завершение работы сервера
func gracefulShutdown(server *http.Server) {
	// Ожидание сигнала остановки
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server...")

	// Создаем контекст с таймаутом для завершения
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Остановка HTTP сервера
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped gracefully")
}
