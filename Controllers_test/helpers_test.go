package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/router"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// setupTestDB menggunakan SQLite in-memory terpisah per test
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Table{},
		&models.Reservation{},
		&models.RefillRequest{},
		&models.CustomerTimer{},
	))

	for i := 1; i <= 3; i++ {
		table := models.Table{TableNumber: i, TableCode: fmt.Sprintf("T%02d", i), Capacity: 4, Status: models.TableStatusAvailable}
		require.NoError(t, db.Create(&table).Error)
	}
	return db
}

// setupRouter mengonfigurasi router lengkap seperti di main
func setupRouter(t *testing.T, db *gorm.DB, opts router.Options) (*gin.Engine, *router.Dependencies) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if opts.RateLimitPerSecond == 0 {
		opts.RateLimitPerSecond = 1000
		opts.RateLimitBurst = 1000
	}
	deps := router.NewDependencies(db, opts)
	t.Cleanup(deps.Timers.Stop)
	return router.SetupRouter(deps), deps
}

func tokenFor(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, r http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decodeData(t *testing.T, resp envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}
