package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigilops/ipsentry/internal/config"
	"github.com/vigilops/ipsentry/internal/models"
	"github.com/vigilops/ipsentry/internal/reputation"
	"github.com/vigilops/ipsentry/internal/services"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	cfg := config.Config{
		Environment: "test",
		GuardMode:   config.GuardModeDisabled,
		JWTSecret:   "test-secret",
		Thresholds:  reputation.DefaultThresholds(),
	}

	store := services.NewTierStoreService(db)
	gate := reputation.NewGate(cfg.Thresholds, store, nil, false)

	router := gin.New()
	assert.NoError(t, Register(router, db, cfg, gate, store))
	return router, db
}

func TestRegister_PublicEndpoints(t *testing.T) {
	router, _ := setupRouter(t)

	for _, path := range []string{"/api/v1/health", "/metrics", "/api/v1/blocklist", "/api/v1/decisions", "/api/v1/reputation/203.0.113.5"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, "path %s", path)
	}
}

func TestRegister_MutationsRequireAuth(t *testing.T) {
	router, _ := setupRouter(t)

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/blocklist/203.0.113.5"},
		{http.MethodDelete, "/api/v1/blocklist/203.0.113.5"},
		{http.MethodGet, "/api/v1/notification-providers"},
		{http.MethodPost, "/api/v1/notification-providers"},
	}
	for _, r := range requests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(r.method, r.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
	}
}

func TestRegister_LoginThenMutate(t *testing.T) {
	router, db := setupRouter(t)

	user := models.User{UUID: "test-uuid", Email: "admin@example.com", Enabled: true}
	assert.NoError(t, user.SetPassword("correct-horse"))
	assert.NoError(t, db.Create(&user).Error)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email": "admin@example.com", "password": "correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	token := body["token"]
	assert.NotEmpty(t, token)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/notification-providers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_MigratesSchema(t *testing.T) {
	_, db := setupRouter(t)

	for _, model := range []interface{}{
		&models.WhitelistEntry{},
		&models.YellowlistEntry{},
		&models.BlockedIP{},
		&models.Decision{},
		&models.NotificationProvider{},
		&models.User{},
	} {
		assert.True(t, db.Migrator().HasTable(model))
	}
}
