package services

import (
	"context"
	"time"

	"PatientRegistry/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (bool, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type StaffStore interface {
	CredentialStore
	Create(ctx context.Context, s *models.Staff) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Staff, error)
	FindAll(ctx context.Context) ([]models.Staff, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Staff, error)
	// UpdateStatus writes status only while the stored status still equals from.
	// A record that is missing or has moved on yields util.ErrRecordNotFound.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.StaffStatus, approvedBy primitive.ObjectID) (*models.Staff, error)
	CountByStatus(ctx context.Context, status models.StaffStatus) (int64, error)
}

type AdminStore interface {
	CredentialStore
	Create(ctx context.Context, a *models.Admin) error
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Admin, error)
}

type PatientStore interface {
	Create(ctx context.Context, p *models.Patient) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Patient, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.PatientPatch) (*models.Patient, error)
	List(ctx context.Context, q models.PatientQuery) ([]models.Patient, int64, error)
}
