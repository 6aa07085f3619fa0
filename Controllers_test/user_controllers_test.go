package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, email, password, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{Name: "Test " + role, Email: email, Password: string(hash), Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "staff@resto.test", "secret123", models.RoleStaff)
	r, _ := setupRouter(t, db, router.Options{})

	w, resp := doRequest(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "staff@resto.test",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Token    string `json:"token"`
		UserRole string `json:"user_role"`
	}
	decodeData(t, resp, &data)
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, models.RoleStaff, data.UserRole)

	w, resp = doRequest(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "staff@resto.test",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", resp.Message)

	w, resp = doRequest(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, resp.Errors, 2)
}

func TestProfileAndLogout(t *testing.T) {
	db := setupTestDB(t)
	// id khusus agar token yang di-blacklist tidak sama dengan token test lain
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{ID: 4242, Name: "Logout Admin", Email: "admin@resto.test", Password: string(hash), Role: models.RoleAdmin}
	require.NoError(t, db.Create(&user).Error)
	r, _ := setupRouter(t, db, router.Options{})
	token := tokenFor(t, user.ID, user.Role)

	w, resp := doRequest(t, r, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile map[string]interface{}
	decodeData(t, resp, &profile)
	assert.Equal(t, "admin@resto.test", profile["email"])

	w, _ = doRequest(t, r, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(t, r, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
