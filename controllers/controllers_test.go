package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PatientRegistry/config/jwt"
	"PatientRegistry/config/mail"
	"PatientRegistry/config/storage"
	"PatientRegistry/middleware"
	"PatientRegistry/repository/memstore"
	"PatientRegistry/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "Passw0rd!"

type captureMailer struct{ last mail.PasswordReset }

func (m *captureMailer) SendPasswordReset(_ context.Context, msg mail.PasswordReset) error {
	m.last = msg
	return nil
}

type testAPI struct {
	router *gin.Engine
	auth   *services.AuthService
	blobs  *storage.MockStore
	mailer *captureMailer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	staff, admins, patients := memstore.NewStaffStore(), memstore.NewAdminStore(), memstore.NewPatientStore()
	mailer := &captureMailer{}
	blobs := storage.NewMockStore()
	auth := services.NewAuthService(staff, admins, jwt.NewManager("secret", time.Hour), mailer, nil, services.AuthConfig{ClientURL: "http://app"})
	h := &Handler{
		Auth:           auth,
		Staff:          services.NewStaffService(staff, admins, nil),
		Patients:       services.NewPatientService(patients, staff, blobs, nil, nil, services.PatientConfig{}),
		MaxUploadBytes: 1 << 20,
		ShowDetail:     true,
	}

	r := gin.New()
	Health(r)
	api := r.Group("/api/auth")
	h.AuthRoutes(api, middleware.RateLimit(middleware.RateLimitConfig{}))
	h.AdminRoutes(api)
	h.StaffRoutes(api)

	_, err := auth.SeedAdmin(context.Background(), "Root", "root@h.org", password)
	require.NoError(t, err)
	return &testAPI{router: r, auth: auth, blobs: blobs, mailer: mailer}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return a.send(t, req, token)
}

func (a *testAPI) send(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (a *testAPI) multipart(t *testing.T, method, path, token string, fields map[string]string, files map[string][]byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, data := range files {
		fw, err := w.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return a.send(t, req, token)
}

func (a *testAPI) adminToken(t *testing.T) string {
	rec, body := a.do(t, http.MethodPost, "/api/auth/loginAdmin", "", map[string]string{"email": "root@h.org", "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return body["token"].(string)
}

// approvedStaffToken signs a staff member up, approves them and logs them in.
func (a *testAPI) approvedStaffToken(t *testing.T, name, email string) (string, string) {
	rec, body := a.do(t, http.MethodPost, "/api/auth/signupStaff", "", map[string]string{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := body["_id"].(string)

	rec, _ = a.do(t, http.MethodPatch, "/api/auth/admin-dashboard/staff-status/"+id, a.adminToken(t), map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, body = a.do(t, http.MethodPost, "/api/auth/loginStaff", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return body["token"].(string), id
}

func pngImage(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		img.Set(x, x%30, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func patientFields() map[string]string {
	return map[string]string{
		"name":     "John Doe",
		"age":      "42",
		"gender":   "Male",
		"address":  "12 Lake Road",
		"mobileNo": "9876543210",
	}
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)
	rec, _ := a.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, "pong", rec.Body.String())
	rec, _ = a.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, "API is running...", rec.Body.String())
}

func TestSignupAndPendingLogin(t *testing.T) {
	a := newTestAPI(t)

	rec, body := a.do(t, http.MethodPost, "/api/auth/signupStaff", "", map[string]string{"name": "Dr. A", "email": "a@h.org", "password": password})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "pending", body["status"])
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, _ = a.do(t, http.MethodPost, "/api/auth/signupStaff", "", map[string]string{"name": "Dr. A", "email": "a@h.org", "password": password})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = a.do(t, http.MethodPost, "/api/auth/loginStaff", "", map[string]string{"email": "a@h.org", "password": password})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", body["message"])
	assert.Equal(t, "pending", body["status"])

	rec, body = a.do(t, http.MethodPost, "/api/auth/loginStaff", "", map[string]string{"email": "a@h.org", "password": "Wr0ng!pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", body["message"])
}

func TestAdminRoutes(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t)

	rec, body := a.do(t, http.MethodGet, "/api/auth/admin-dashboard", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["message"], "Welcome Admin")

	_, staffID := a.approvedStaffToken(t, "Dr. A", "a@h.org")

	rec, _ = a.do(t, http.MethodGet, "/api/auth/admin-dashboard/staffs", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var staff []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &staff))
	require.Len(t, staff, 1)
	assert.Equal(t, "approved", staff[0]["status"])
	assert.Equal(t, "Root", staff[0]["approvedBy"].(map[string]any)["name"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec, body = a.do(t, http.MethodPatch, "/api/auth/admin-dashboard/staff-status/"+staffID, admin, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "approved -> pending")

	rec, _ = a.do(t, http.MethodPatch, "/api/auth/admin-dashboard/staff-status/"+staffID, admin, map[string]string{"status": "sleeping"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(t, http.MethodPatch, "/api/auth/admin-dashboard/staff-status/000000000000000000000000", admin, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = a.do(t, http.MethodGet, "/api/auth/admin-dashboard/patients", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["totalPages"])
	assert.NotContains(t, body, "success")
}

func TestRoleGates(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t)
	staff, _ := a.approvedStaffToken(t, "Dr. A", "a@h.org")

	rec, body := a.do(t, http.MethodGet, "/api/auth/staff-dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = a.do(t, http.MethodGet, "/api/auth/staff-dashboard", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = a.do(t, http.MethodGet, "/api/auth/staff-dashboard", admin, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied. Not a staff.", body["message"])

	rec, _ = a.do(t, http.MethodGet, "/api/auth/admin-dashboard/staffs", staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = a.do(t, http.MethodGet, "/api/auth/staff-dashboard", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome Dr. A", body["message"])
}

func TestBlockedStaffLosesAccess(t *testing.T) {
	a := newTestAPI(t)
	staff, id := a.approvedStaffToken(t, "Dr. A", "a@h.org")

	rec, _ := a.do(t, http.MethodPatch, "/api/auth/admin-dashboard/staff-status/"+id, a.adminToken(t), map[string]string{"status": "blocked"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := a.do(t, http.MethodGet, "/api/auth/staff-dashboard/patients", staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "blocked", body["status"])
}

func TestPatientLifecycle(t *testing.T) {
	a := newTestAPI(t)
	staff, _ := a.approvedStaffToken(t, "Dr. A", "a@h.org")

	rec, body := a.multipart(t, http.MethodPost, "/api/auth/staff-dashboard/patientRegistration", staff,
		patientFields(), map[string][]byte{"prescriptionFront": pngImage(t)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	id := data["_id"].(string)
	assert.Equal(t, "Dr. A", data["registeredBy"].(map[string]any)["name"])
	assert.Contains(t, data["prescriptionFrontUrl"], "prescriptions/front/")
	assert.Nil(t, data["prescriptionBackUrl"])
	assert.Equal(t, 1, a.blobs.Len())

	rec, body = a.do(t, http.MethodGet, "/api/auth/staff-dashboard/patients?search=john", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(1), body["totalCount"])
	assert.Equal(t, float64(1), body["currentPage"])

	rec, body = a.multipart(t, http.MethodPut, "/api/auth/staff-dashboard/patients/"+id, staff,
		map[string]string{"address": "7 Hill Street", "deleteFrontImage": "true"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data = body["data"].(map[string]any)
	assert.Equal(t, "7 Hill Street", data["address"])
	assert.Equal(t, "John Doe", data["name"])
	assert.Nil(t, data["prescriptionFrontUrl"])
	assert.Zero(t, a.blobs.Len())

	rec, body = a.do(t, http.MethodGet, "/api/auth/staff-dashboard/patients/"+id, staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7 Hill Street", body["data"].(map[string]any)["address"])

	rec, _ = a.do(t, http.MethodGet, "/api/auth/staff-dashboard/patients/nope", staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterPatient_Rejections(t *testing.T) {
	a := newTestAPI(t)
	staff, _ := a.approvedStaffToken(t, "Dr. A", "a@h.org")

	fields := patientFields()
	delete(fields, "gender")
	rec, _ := a.multipart(t, http.MethodPost, "/api/auth/staff-dashboard/patientRegistration", staff, fields, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := a.multipart(t, http.MethodPost, "/api/auth/staff-dashboard/patientRegistration", staff,
		patientFields(), map[string][]byte{"prescriptionFront": []byte("plain text, not a picture")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only image files are allowed", body["message"])

	big := bytes.Repeat([]byte{0xff}, 3<<20)
	rec, _ = a.multipart(t, http.MethodPost, "/api/auth/staff-dashboard/patientRegistration", staff,
		patientFields(), map[string][]byte{"prescriptionFront": big})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/auth/staff-dashboard/patients?page=abc", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(t, http.MethodGet, "/api/auth/staff-dashboard/patients?sortBy=password", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPasswordResetRoutes(t *testing.T) {
	a := newTestAPI(t)

	rec, body := a.do(t, http.MethodPost, "/api/auth/forgotPasswordStaff", "", map[string]string{"email": "ghost@h.org"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Staff with this email does not exist", body["message"])

	rec, body = a.do(t, http.MethodPost, "/api/auth/forgotPasswordAdmin", "", map[string]string{"email": "root@h.org"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset email sent", body["message"])
	assert.NotContains(t, rec.Body.String(), "token")

	link := a.mailer.last.ResetURL
	require.True(t, strings.HasPrefix(link, "http://app/reset-password/admin/"))
	token := link[strings.LastIndex(link, "/")+1:]

	rec, _ = a.do(t, http.MethodPost, "/api/auth/resetPasswordStaff", "", map[string]string{"token": token, "password": "N3w!Passw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "admin token is not valid for the staff route")

	rec, body = a.do(t, http.MethodPost, "/api/auth/resetPasswordAdmin", "", map[string]string{"token": token, "password": "N3w!Passw"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password reset successful", body["message"])

	rec, body = a.do(t, http.MethodPost, "/api/auth/resetPasswordAdmin", "", map[string]string{"token": token, "password": "N3w!Passw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["message"])

	rec, _ = a.do(t, http.MethodPost, "/api/auth/loginAdmin", "", map[string]string{"email": "root@h.org", "password": "N3w!Passw"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
