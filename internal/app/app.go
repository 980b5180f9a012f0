package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/joho/godotenv"

	"github.com/nyaaypath/nyaaypath/internal/approval"
	"github.com/nyaaypath/nyaaypath/internal/cache"
	"github.com/nyaaypath/nyaaypath/internal/config"
	"github.com/nyaaypath/nyaaypath/internal/env"
	"github.com/nyaaypath/nyaaypath/internal/errHandler"
	"github.com/nyaaypath/nyaaypath/internal/file"
	"github.com/nyaaypath/nyaaypath/internal/helper"
	"github.com/nyaaypath/nyaaypath/internal/identity"
	"github.com/nyaaypath/nyaaypath/internal/repository"
	"github.com/nyaaypath/nyaaypath/internal/smtp"
	"github.com/nyaaypath/nyaaypath/internal/stream"
	"github.com/nyaaypath/nyaaypath/internal/verify"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items when they need them
type Application struct {
	Config         config.Config
	DB             repository.Database
	Logger         *slog.Logger
	Mailer         *smtp.Mailer
	WG             sync.WaitGroup
	ErrHandler     *errHandler.ErrorHandler
	Helper         *helper.HelperRepository
	Kafka          *stream.KafkaStream
	FileUploader   *file.FileUploader
	Cache          *cache.Cache
	Sessions       *cache.SessionStore
	Identity       *identity.Provisioner
	Hub            *approval.Hub
	Approval       *approval.Service
	OCR            *verify.OCRClient
	AddressChecker *verify.AddressChecker
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", "error", err)
	}

	var cfg config.Config

	// config values are loaded from the .env file
	// Default values are provided for these items and these should strictly be values for development mode only
	// make sure no production-level value is exposed as default value here
	cfg.BaseURL = env.GetString("BASE_URL", "http://localhost:4444")
	cfg.HttpPort = env.GetInt("HTTP_PORT", 4444)

	cfg.Db.Dsn = env.GetString("DB_DSN", "user:pass@localhost:5432/db")
	cfg.Db.Automigrate = env.GetBool("DB_AUTOMIGRATE", true)

	cfg.Jwt.SecretKey = env.GetString("JWT_SECRET_KEY", "ajf5nx3qmp6zquevllxocxqvyz42ypuo")

	// server errors won't be sent via email if the NOTIFICATIONS_EMAIL wasn't set in the .env file
	cfg.Notifications.Email = env.GetString("NOTIFICATIONS_EMAIL", "")

	cfg.Smtp.Host = env.GetString("SMTP_HOST", "example.smtp.host")
	cfg.Smtp.Port = env.GetInt("SMTP_PORT", 25)
	cfg.Smtp.Username = env.GetString("SMTP_USERNAME", "example_username")
	cfg.Smtp.Password = env.GetString("SMTP_PASSWORD", "pa55word")
	cfg.Smtp.From = env.GetString("SMTP_FROM", "NyaayPath <no_reply@example.org>")

	cfg.RedisServer = env.GetString("REDIS_SERVER", "localhost:6379")
	cfg.KafkaServers = env.GetString("KAFKA_SERVERS", "localhost:9092")

	cfg.FileUploader.ApiKey = env.GetString("CLOUDINARY_API_KEY", "")
	cfg.FileUploader.CloudName = env.GetString("CLOUDINARY_CLOUD_NAME", "")
	cfg.FileUploader.ApiSecret = env.GetString("CLOUDINARY_API_SECRET", "")

	// verification endpoints default off; handlers answer 503 for these
	// features until they are configured
	cfg.Verify.OcrURL = env.GetString("OCR_VERIFY_URL", "")
	cfg.Verify.AddressURL = env.GetString("ADDRESS_VERIFY_URL", "")

	cfg.SeedAdmin.Email = env.GetString("SEED_ADMIN_EMAIL", "")
	cfg.SeedAdmin.Password = env.GetString("SEED_ADMIN_PASSWORD", "")

	db, err := repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	errorHandler := errHandler.New(cfg.Notifications.Email, mailer, logger)

	app := &Application{
		Config:     cfg,
		DB:         db,
		Logger:     logger,
		Mailer:     mailer,
		ErrHandler: errorHandler,
	}

	app.Helper = helper.New(&cfg.BaseURL, &app.WG, errorHandler)

	app.Kafka = stream.New(cfg.KafkaServers)
	app.FileUploader = file.New(cfg.FileUploader.CloudName, cfg.FileUploader.ApiKey, cfg.FileUploader.ApiSecret)

	app.Cache = cache.New(cfg.RedisServer, 0)
	app.Sessions = cache.NewSessionStore(app.Cache)

	app.Identity = identity.New(db.Account(), db.ResetToken(), mailer, cfg.BaseURL)

	app.Hub = approval.NewHub()
	app.Approval = approval.NewService(db.AdminRequest(), db.Admin(), db.Account(), app.Identity, app.Kafka, app.Hub, logger)

	app.OCR = verify.NewOCRClient(cfg.Verify.OcrURL)
	app.AddressChecker = verify.NewAddressChecker(cfg.Verify.AddressURL)

	return app, nil
}
