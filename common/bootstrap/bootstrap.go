// Package bootstrap wires the shared dependencies every entrypoint needs:
// configuration, logging, the database and the external adapters.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventsync-services/common/config"
	"github.com/eventsync-services/common/db"
	"github.com/eventsync-services/common/email"
	"github.com/eventsync-services/common/jwt"
	"github.com/eventsync-services/common/logger"
	"github.com/eventsync-services/common/qrcode"
	"github.com/eventsync-services/common/storage"
)

// App holds the process-wide dependencies
type App struct {
	Config *config.Config
	DB     *sqlx.DB
	Tokens *jwt.Manager
	Signer *qrcode.Signer
	Mailer email.Mailer
	Images storage.ImageStore
}

// Init loads configuration, installs the default logger, connects to the
// database (migrating it when DB_AUTO_MIGRATE is set) and builds the adapters.
func Init(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	SetupLogger(cfg)

	if err := db.InitDB(ctx, db.Config{Driver: cfg.DBDriver, DSN: cfg.DSN()}); err != nil {
		return nil, err
	}
	conn := db.GetDB()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, conn); err != nil {
			_ = db.CloseDB()
			return nil, err
		}
	}

	images, err := NewImageStore(ctx, cfg)
	if err != nil {
		_ = db.CloseDB()
		return nil, err
	}

	mailer := email.NewEmailService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		Timeout:  cfg.SMTPTimeout,
	})
	if mailer.DevMode() {
		logger.Warn("[EMAIL] SMTP credentials not set, emails will only be logged")
	}
	if !cfg.AdminPasskeyConfigured() {
		logger.Warn("[AUTH] ADMIN_PASSKEY not set, administrator sign-up and login are disabled")
	}

	return &App{
		Config: cfg,
		DB:     conn,
		Tokens: jwt.NewManager(cfg.JWTSecret, cfg.TokenTTL),
		Signer: qrcode.NewSigner(cfg.QRSigningSecret),
		Mailer: mailer,
		Images: images,
	}, nil
}

// SetupLogger installs the default logger described by cfg
func SetupLogger(cfg *config.Config) {
	logger.SetDefault(logger.New(&logger.Config{
		Level:       cfg.LogLevel,
		JSONFormat:  cfg.LogFormat == "json",
		EnableColor: true,
		ServiceName: cfg.ServiceName,
		FilePath:    cfg.LogFile,
		MaxSizeMB:   100,
		MaxBackups:  5,
		MaxAgeDays:  28,
	}))
}

// NewImageStore returns the S3 store, or a store that rejects uploads when no
// bucket is configured.
func NewImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if !cfg.ImageStoreConfigured() {
		logger.Warn("[STORAGE] IMAGE_BUCKET not set, event image uploads are disabled")
		return storage.NoopStore{}, nil
	}
	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          cfg.ImageBucket,
		Region:          cfg.ImageRegion,
		Endpoint:        cfg.ImageEndpoint,
		AccessKeyID:     cfg.ImageAccessKeyID,
		SecretAccessKey: cfg.ImageSecretAccessKey,
		PublicBaseURL:   cfg.ImagePublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image store: %w", err)
	}
	return store, nil
}

// Close releases the database connection
func (a *App) Close() error {
	return db.CloseDB()
}
