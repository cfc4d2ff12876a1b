package services

import (
	"context"
	"sync"
	"time"

	"PatientRegistry/config/jwt"
	"PatientRegistry/config/mail"
	"PatientRegistry/metrics"
	"PatientRegistry/models"
	"PatientRegistry/repository/memstore"

	"github.com/stretchr/testify/mock"
)

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

// recordingMailer keeps every message so tests can pull the reset link out.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.PasswordReset
	err  error
}

func (r *recordingMailer) SendPasswordReset(_ context.Context, msg mail.PasswordReset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingMailer) last() mail.PasswordReset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

type fixture struct {
	staff    *memstore.StaffStore
	admins   *memstore.AdminStore
	patients *memstore.PatientStore
	tokens   *jwt.Manager
	mailer   *recordingMailer
	metrics  *metrics.Collector
	auth     *AuthService
	staffSvc *StaffService
}

func newFixture() *fixture {
	f := &fixture{
		staff:    memstore.NewStaffStore(),
		admins:   memstore.NewAdminStore(),
		patients: memstore.NewPatientStore(),
		tokens:   jwt.NewManager("test-secret", 24*time.Hour),
		mailer:   &recordingMailer{},
		metrics:  metrics.NewCollector("test"),
	}
	f.auth = NewAuthService(f.staff, f.admins, f.tokens, f.mailer, f.metrics, AuthConfig{
		ClientURL:     "http://localhost:3000",
		ResetTokenTTL: 10 * time.Minute,
	})
	f.staffSvc = NewStaffService(f.staff, f.admins, f.metrics)
	return f
}

const testPassword = "Passw0rd!"

func (f *fixture) seedAdmin(ctx context.Context) *models.Account {
	if _, err := f.auth.SeedAdmin(ctx, "Root Admin", "root@h.org", testPassword); err != nil {
		panic(err)
	}
	acc, err := f.admins.FindByEmail(ctx, "root@h.org")
	if err != nil {
		panic(err)
	}
	return acc
}

func (f *fixture) approvedStaff(ctx context.Context, name, email string) *models.Staff {
	reg, err := f.auth.RegisterStaff(ctx, name, email, testPassword)
	if err != nil {
		panic(err)
	}
	admin := f.seedAdmin(ctx)
	if _, err := f.staffSvc.UpdateStaffStatus(ctx, admin.ID, reg.ID.Hex(), string(models.StatusApproved)); err != nil {
		panic(err)
	}
	st, err := f.staff.FindByID(ctx, reg.ID)
	if err != nil {
		panic(err)
	}
	return st
}

func (f *fixture) adminToken(ctx context.Context) string {
	f.seedAdmin(ctx)
	sess, err := f.auth.LoginAdmin(ctx, "root@h.org", testPassword)
	if err != nil {
		panic(err)
	}
	return sess.Token
}
