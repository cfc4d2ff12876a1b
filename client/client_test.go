package client

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"PatientRegistry/config/jwt"
	"PatientRegistry/config/mail"
	"PatientRegistry/config/storage"
	"PatientRegistry/controllers"
	"PatientRegistry/middleware"
	"PatientRegistry/models"
	"PatientRegistry/repository/memstore"
	"PatientRegistry/role"
	"PatientRegistry/routes"
	"PatientRegistry/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "Passw0rd!"

type inbox struct {
	mu   sync.Mutex
	last mail.PasswordReset
}

func (i *inbox) SendPasswordReset(_ context.Context, msg mail.PasswordReset) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last = msg
	return nil
}

func (i *inbox) token() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.last.ResetURL[strings.LastIndex(i.last.ResetURL, "/")+1:]
}

func newServer(t *testing.T) (*httptest.Server, *inbox) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	staff, admins, patients := memstore.NewStaffStore(), memstore.NewAdminStore(), memstore.NewPatientStore()
	mailer := &inbox{}
	auth := services.NewAuthService(staff, admins, jwt.NewManager("e2e-secret", 24*time.Hour), mailer, nil, services.AuthConfig{ClientURL: "http://spa"})
	h := &controllers.Handler{
		Auth:           auth,
		Staff:          services.NewStaffService(staff, admins, nil),
		Patients:       services.NewPatientService(patients, staff, storage.NewMockStore(), nil, nil, services.PatientConfig{}),
		MaxUploadBytes: 5 << 20,
		ShowDetail:     true,
	}
	_, err := auth.SeedAdmin(context.Background(), "Root Admin", "root@h.org", password)
	require.NoError(t, err)

	r := gin.New()
	routes.Routes(r, h, routes.Options{BasePath: DefaultBasePath, RateLimit: middleware.RateLimitConfig{}})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mailer
}

func jpegFile(t *testing.T) *File {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for i := 0; i < 32; i++ {
		img.Set(i, i, color.RGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return &File{Name: "rx.jpg", Data: buf.Bytes()}
}

func ptr[T any](v T) *T { return &v }

func apiStatus(t *testing.T, err error) *APIError {
	t.Helper()
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "expected *APIError, got %v", err)
	return apiErr
}

func TestEndToEnd_RegistrationScenario(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)

	doctor := New(srv.URL, "")
	signup, err := doctor.SignupStaff(ctx, "Dr. A", "a@x.com", password)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, signup.Status)

	_, err = doctor.LoginStaff(ctx, "a@x.com", password)
	apiErr := apiStatus(t, err)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "pending", apiErr.Status)

	_, err = doctor.StaffDashboard(ctx)
	assert.Equal(t, http.StatusForbidden, apiStatus(t, err).StatusCode)

	admin := New(srv.URL, "")
	_, err = admin.LoginAdmin(ctx, "root@h.org", password)
	require.NoError(t, err)
	sess, ok := admin.Session().Session()
	require.True(t, ok)
	assert.Equal(t, role.Admin, sess.Role)

	staff, err := admin.ListStaff(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	approved, err := admin.UpdateStaffStatus(ctx, staff[0].ID, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, "Root Admin", approved.ApprovedBy.Name)

	_, err = doctor.LoginStaff(ctx, "a@x.com", password)
	require.NoError(t, err)
	msg, err := doctor.StaffDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Welcome Dr. A", msg)

	patient, err := doctor.RegisterPatient(ctx, PatientInput{
		Name:     ptr("John Doe"),
		Age:      ptr(30),
		Gender:   ptr(models.GenderMale),
		Address:  ptr("12 Lake Road"),
		MobileNo: ptr("9876543210"),
	}, jpegFile(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", patient.Name)
	require.NotNil(t, patient.PrescriptionFrontURL)
	assert.Nil(t, patient.PrescriptionBackURL)

	page, err := doctor.ListPatients(ctx, PatientQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, "Dr. A", page.Data[0].RegisteredBy.Name)

	updated, err := doctor.UpdatePatient(ctx, patient.ID, PatientUpdate{
		PatientInput:     PatientInput{Age: ptr(31)},
		DeleteFrontImage: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 31, updated.Age)
	assert.Nil(t, updated.PrescriptionFrontURL)

	got, err := doctor.GetPatient(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, 31, got.Age)

	adminPage, err := admin.AdminListPatients(ctx, PatientQuery{Search: "john"})
	require.NoError(t, err)
	assert.Equal(t, 1, adminPage.Count)

	empty, err := doctor.ListPatients(ctx, PatientQuery{Search: "nobody"})
	require.NoError(t, err)
	assert.Zero(t, empty.TotalPages)
	assert.Empty(t, empty.Data)
}

func TestEndToEnd_PasswordReset(t *testing.T) {
	ctx := context.Background()
	srv, mailbox := newServer(t)
	c := New(srv.URL, DefaultBasePath)

	_, err := c.ForgotPassword(ctx, role.Staff, "ghost@h.org")
	assert.Equal(t, http.StatusNotFound, apiStatus(t, err).StatusCode)

	msg, err := c.ForgotPassword(ctx, role.Admin, "root@h.org")
	require.NoError(t, err)
	assert.Equal(t, "Password reset email sent", msg)

	token := mailbox.token()
	msg, err = c.ResetPassword(ctx, role.Admin, token, "N3w!Passw")
	require.NoError(t, err)
	assert.Equal(t, "Password reset successful", msg)

	_, err = c.ResetPassword(ctx, role.Admin, token, "An0ther!pw")
	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err).StatusCode)

	_, err = c.LoginAdmin(ctx, "root@h.org", "N3w!Passw")
	assert.NoError(t, err)
}

func TestUnauthorizedClearsSession(t *testing.T) {
	ctx := context.Background()
	srv, _ := newServer(t)
	c := New(srv.URL, "")
	c.Session().SetSession(Session{Token: "stale", Role: role.Admin})

	_, err := c.ListStaff(ctx)
	assert.Equal(t, http.StatusUnauthorized, apiStatus(t, err).StatusCode)
	assert.Empty(t, c.Session().GetToken())
}

func TestLogout(t *testing.T) {
	s := NewMemorySession()
	c := New("http://example.invalid", "", WithSessionStore(s))
	s.SetSession(Session{Token: "t"})
	c.Logout()
	_, ok := s.Session()
	assert.False(t, ok)
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 403, Message: "Access denied", Status: "blocked"}
	assert.Equal(t, "api 403: Access denied (status blocked)", err.Error())
	assert.Equal(t, "api 404: Patient not found", (&APIError{StatusCode: 404, Message: "Patient not found"}).Error())
}
