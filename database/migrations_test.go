package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:seed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestSeedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Migrate(db))

	opts := SeedOptions{Tables: 3, AdminEmail: "admin@example.com", AdminPassword: "secret123"}
	ctx := context.Background()
	require.NoError(t, Seed(ctx, db, opts))
	require.NoError(t, Seed(ctx, db, opts))

	var tables []models.Table
	require.NoError(t, db.Order("table_number").Find(&tables).Error)
	require.Len(t, tables, 3)
	assert.Equal(t, "T01", tables[0].TableCode)
	assert.Equal(t, "T03", tables[2].TableCode)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("secret123")))
}

func TestSeedSkipsAdminWithoutCredentials(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Migrate(db))
	require.NoError(t, Seed(context.Background(), db, SeedOptions{}))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
