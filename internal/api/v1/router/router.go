package router

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/prvclub/backend/internal/api/v1/handler"
	"github.com/prvclub/backend/internal/config"
	"github.com/prvclub/backend/internal/mailer"
	"github.com/prvclub/backend/internal/middleware"
	"github.com/prvclub/backend/internal/repository"
	"github.com/prvclub/backend/internal/service"
	"github.com/prvclub/backend/internal/storage"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	// 1. Open DB connection (connection pooling)
	dsn := cfg.DatabaseURL
	// Local development databases usually run without SSL; production
	// connection strings carry their own sslmode.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// 2. Initialize S3 client and image URL signer
	s3Client, err := storage.NewClient(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize S3 client")
		return nil, nil, err
	}
	signer := storage.NewSigner(s3Client, cfg.S3Bucket, logger)

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize store & services & handlers
	store := repository.NewStore(db)

	authSvc := service.NewAuthService(store, cfg.JWTSecret, logger)
	privilegeSvc := service.NewPrivilegeService(store, logger)
	productSvc := service.NewProductService(store, signer, logger)
	redemptionSvc := service.NewRedemptionService(store, signer, logger)
	otpSvc := service.NewOTPService(store, mailer.New(cfg), logger)

	adminHandler := handler.NewAdminHandler(authSvc, privilegeSvc, redemptionSvc, validate)
	productHandler := handler.NewProductHandler(productSvc, validate)
	privilegeHandler := handler.NewPrivilegeHandler(privilegeSvc)
	redemptionHandler := handler.NewRedemptionHandler(redemptionSvc, validate)
	otpHandler := handler.NewOTPHandler(otpSvc, validate)

	// 5. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	// 6. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	adminHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	productHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	privilegeHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	redemptionHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	otpHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// 7. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), db, nil
}
