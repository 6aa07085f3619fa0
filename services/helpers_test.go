package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB -> SQLite in-memory terpisah per test
func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

// seedTables membuat meja T01..Tn dengan id 1..n
func seedTables(t *testing.T, db *gorm.DB, n int) []models.Table {
	t.Helper()
	tables := make([]models.Table, 0, n)
	for i := 1; i <= n; i++ {
		table := models.Table{
			TableNumber: i,
			TableCode:   fmt.Sprintf("T%02d", i),
			Capacity:    4,
			Status:      models.TableStatusAvailable,
		}
		require.NoError(t, db.Create(&table).Error)
		tables = append(tables, table)
	}
	return tables
}

func seedCustomer(t *testing.T, db *gorm.DB) models.Customer {
	t.Helper()
	customer := models.Customer{FirstName: "Maria", LastName: "Santos", IsActive: true}
	require.NoError(t, db.Create(&customer).Error)
	return customer
}

type published struct {
	Room  string
	Event string
	Data  interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(room, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Room: room, Event: event, Data: data})
}

func (p *recordingPublisher) rooms(event string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var rooms []string
	for _, e := range p.events {
		if e.Event == event {
			rooms = append(rooms, e.Room)
		}
	}
	return rooms
}

func reservationInput(table FlexibleID, date, at string) CreateReservationInput {
	return CreateReservationInput{
		CustomerName:    "Juan dela Cruz",
		Phone:           "+63 912 345 6789",
		TableID:         table,
		NumberOfGuests:  2,
		ReservationDate: date,
		ReservationTime: at,
	}
}
