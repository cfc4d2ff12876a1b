package main

import (
	"context"

	"PatientRegistry/config"
	"PatientRegistry/config/db"
	"PatientRegistry/config/jwt"
	"PatientRegistry/config/mail"
	"PatientRegistry/config/redis"
	"PatientRegistry/config/storage"
	"PatientRegistry/controllers"
	"PatientRegistry/metrics"
	"PatientRegistry/repository"
	"PatientRegistry/repository/memstore"
	"PatientRegistry/services"
	"PatientRegistry/util"

	"go.uber.org/zap"
)

// app holds the wired services for one process.
type app struct {
	metrics *metrics.Collector
	auth    *services.AuthService
	handler *controllers.Handler
}

/*
* Pick the stores for STORE_DRIVER, mongo collections need db.Connect first
* Pick the blob store for STORAGE_DRIVER and the mailer for the SMTP settings
* Build the services on top and the handler that serves them
 */
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	var (
		staff    services.StaffStore
		admins   services.AdminStore
		patients services.PatientStore
	)
	if cfg.StoreDriver == "memory" {
		staff, admins, patients = memstore.NewStaffStore(), memstore.NewAdminStore(), memstore.NewPatientStore()
	} else {
		staff = repository.NewStaffRepository(db.OpenCollections(util.StaffCollection))
		admins = repository.NewAdminRepository(db.OpenCollections(util.AdminCollection))
		patients = repository.NewPatientRepository(db.OpenCollections(util.PatientCollection))
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.NewCollector("patient_registry")
	auth := services.NewAuthService(staff, admins, jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL), newMailer(cfg), m, services.AuthConfig{
		ClientURL:           cfg.ClientURL,
		ResetTokenTTL:       cfg.ResetTokenTTL,
		ConcealUnknownEmail: cfg.ConcealUnknownEmail,
	})
	patientSvc := services.NewPatientService(patients, staff, blobs, redis.Default, m, services.PatientConfig{
		RequireFrontImage: cfg.RequirePrescriptionFront,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		Location:          cfg.Location,
	})

	return &app{
		metrics: m,
		auth:    auth,
		handler: &controllers.Handler{
			Auth:           auth,
			Staff:          services.NewStaffService(staff, admins, m),
			Patients:       patientSvc,
			MaxUploadBytes: cfg.MaxUploadBytes,
			ShowDetail:     !cfg.IsProduction(),
		},
	}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageDriver != "s3" {
		zap.L().Info("using mock blob storage")
		return storage.NewMockStore(), nil
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          cfg.S3.Bucket,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		PublicBaseURL:   cfg.S3.PublicBaseURL,
		UsePathStyle:    cfg.S3.UsePathStyle,
	})
}

// newMailer logs reset links instead of sending them when development has no SMTP account.
func newMailer(cfg *config.Config) mail.Sender {
	if cfg.SMTP.User == "" && !cfg.IsProduction() {
		zap.L().Warn("SMTP_USER not set, reset emails are written to the log")
		return mail.LogSender{Logger: zap.L()}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Secure:   cfg.SMTP.Secure,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

// seedAdmin creates the configured admin account once. It is a no-op without ADMIN_EMAIL.
func seedAdmin(ctx context.Context, auth *services.AuthService, cfg *config.Config) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	created, err := auth.SeedAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		zap.L().Info("admin account created", zap.String("email", cfg.AdminEmail))
	} else {
		zap.L().Info("admin account already exists", zap.String("email", cfg.AdminEmail))
	}
	return nil
}
