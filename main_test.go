package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"PatientRegistry/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryEnv(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORAGE_DRIVER", "mock")
	t.Setenv("JWT_SECRET", "main-test-secret")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("SMTP_USER", "")
	t.Setenv("ADMIN_NAME", "Root")
	t.Setenv("ADMIN_EMAIL", "root@h.org")
	t.Setenv("ADMIN_PASSWORD", "Passw0rd!")
	t.Setenv("RESET_SWEEP_SCHEDULE", "@every 1h")
}

func TestRun_FullCoverage(t *testing.T) {
	memoryEnv(t)
	isTest = true
	defer func() { isTest = false }()

	var capturedOpts server.Options
	defer func(orig func(server.Options) error) { startServer = orig }(startServer)
	startServer = func(opts server.Options) error {
		capturedOpts = opts
		return nil
	}

	require.NoError(t, run())
	assert.False(t, capturedOpts.MongoEnabled)
	assert.False(t, capturedOpts.MigrationEnabled)
	assert.False(t, capturedOpts.JobsEnabled)
	assert.False(t, capturedOpts.CacheEnabled)
	assert.True(t, capturedOpts.ShowErrorDetail)

	// execute all handlers against the memory store
	require.NoError(t, capturedOpts.MigrationHandler(context.Background()))
	stop, err := capturedOpts.JobsHandler()
	require.NoError(t, err)
	stop()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	capturedOpts.WebServerPreHandler(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "pong", rec.Body.String())

	body, _ := json.Marshal(map[string]string{"email": "root@h.org", "password": "Passw0rd!"})
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/loginAdmin", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "admin seeded by the migration handler can log in")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "patient_registry_auth_logins_total")
}

func TestRootCommand_Serve(t *testing.T) {
	memoryEnv(t)
	called := 0
	defer func(orig func(server.Options) error) { startServer = orig }(startServer)
	startServer = func(server.Options) error {
		called++
		return nil
	}

	cmd := rootCmd()
	cmd.SetArgs([]string{"serve"})
	require.NoError(t, cmd.Execute())

	cmd = rootCmd()
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, 2, called)
}

func TestRootCommand_ProductionNeedsSecret(t *testing.T) {
	memoryEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")
	defer func(orig func(server.Options) error) { startServer = orig }(startServer)
	startServer = func(server.Options) error {
		t.Fatal("server must not start without a secret")
		return nil
	}

	cmd := rootCmd()
	cmd.SetArgs([]string{"serve"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestSeedAdminCommand_Memory(t *testing.T) {
	memoryEnv(t)
	cmd := rootCmd()
	cmd.SetArgs([]string{"seed-admin", "--email", "other@h.org"})
	assert.NoError(t, cmd.Execute())
}
