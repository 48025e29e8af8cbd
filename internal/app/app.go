package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/dmunteanu/supervision-service/internal/auth"
	"github.com/dmunteanu/supervision-service/internal/config"
	"github.com/dmunteanu/supervision-service/internal/delivery/httpd"
	"github.com/dmunteanu/supervision-service/internal/repository"
	"github.com/dmunteanu/supervision-service/internal/service"
	"github.com/dmunteanu/supervision-service/internal/service/integration"
	"github.com/dmunteanu/supervision-service/internal/service/storage"
)

type App struct {
	server         *http.Server
	logger         zerolog.Logger
	config         *config.Config
	db             *sql.DB
	rabbitmqClient integration.RabbitMQClient
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	blobStorage, err := storage.NewMinIOStorage(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
		Timeout:   10,
	})
	if err != nil {
		return nil, err
	}

	rabbitmqClient, err := integration.NewRabbitMQClient(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		log,
	)
	if err != nil {
		// The engine runs without the event bus; publishers are nil-checked.
		log.Error().Err(err).Msg("Failed to create RabbitMQ client")
	}

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	professorRepo := repository.NewProfessorRepository(db, log)
	studentRepo := repository.NewStudentRepository(db, log)
	termRepo := repository.NewTermRepository(db, log)
	sessionRepo := repository.NewSessionRepository(db, log)
	requestRepo := repository.NewRequestRepository(db, log)

	authService := service.NewAuthService(professorRepo, studentRepo, tokens, log)
	professorService := service.NewProfessorService(professorRepo, log)
	studentService := service.NewStudentService(studentRepo, log)
	termService := service.NewTermService(termRepo, log)
	sessionService := service.NewSessionService(sessionRepo, termRepo, rabbitmqClient, log)
	requestService := service.NewRequestService(
		requestRepo,
		sessionRepo,
		studentRepo,
		blobStorage,
		rabbitmqClient,
		log,
	)

	handler := httpd.NewHandler(
		authService,
		professorService,
		studentService,
		termService,
		sessionService,
		requestService,
		tokens,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:         server,
		logger:         log,
		config:         cfg,
		db:             db,
		rabbitmqClient: rabbitmqClient,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting supervision service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down supervision service...")

	if a.rabbitmqClient != nil {
		if err := a.rabbitmqClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}
