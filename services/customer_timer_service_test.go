package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerTimerLifecycle(t *testing.T) {
	db := newTestDB(t)
	seedTables(t, db, 2)
	svc := NewCustomerTimerService(db, NewTableService(db, nil))
	now := time.Date(2025, 11, 5, 18, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	timer, created, err := svc.Start(ctx, StartTimerInput{TableCode: "T01"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, walkInCustomer, timer.CustomerName)
	assert.True(t, timer.IsActive)

	// start kedua pada meja yang sama memperbarui timer aktif
	tableID := uint(1)
	again, created, err := svc.Start(ctx, StartTimerInput{TableID: &tableID, CustomerName: "Rosa"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, timer.ID, again.ID)
	assert.Equal(t, "Rosa", again.CustomerName)

	now = now.Add(90 * time.Second)
	active, err := svc.GetActiveByTableCode(ctx, "T01")
	require.NoError(t, err)
	assert.Equal(t, int64(90), active.CurrentElapsedSeconds)

	now = now.Add(30 * time.Second)
	stopped, err := svc.StopByTableCode(ctx, "T01")
	require.NoError(t, err)
	assert.False(t, stopped.IsActive)
	require.NotNil(t, stopped.EndTime)
	require.NotNil(t, stopped.ElapsedSeconds)
	assert.Equal(t, int64(120), *stopped.ElapsedSeconds)

	// setelah berhenti, elapsed tidak bertambah lagi
	now = now.Add(time.Hour)
	timers, err := svc.List(ctx, CustomerTimerFilter{TableID: &tableID})
	require.NoError(t, err)
	require.Len(t, timers, 1)
	assert.Equal(t, int64(120), timers[0].CurrentElapsedSeconds)

	_, err = svc.GetActiveByTableCode(ctx, "T01")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	next, created, err := svc.Start(ctx, StartTimerInput{TableCode: "T01"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, timer.ID, next.ID)
}

func TestStartCustomerTimerRequiresTable(t *testing.T) {
	db := newTestDB(t)
	seedTables(t, db, 1)
	svc := NewCustomerTimerService(db, NewTableService(db, nil))
	ctx := context.Background()

	_, _, err := svc.Start(ctx, StartTimerInput{CustomerName: "Rosa"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	missing := uint(9)
	_, _, err = svc.Start(ctx, StartTimerInput{TableID: &missing})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUpdateCustomerTimer(t *testing.T) {
	db := newTestDB(t)
	seedTables(t, db, 1)
	svc := NewCustomerTimerService(db, NewTableService(db, nil))
	ctx := context.Background()

	timer, _, err := svc.Start(ctx, StartTimerInput{TableCode: "T01"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, timer.ID, UpdateTimerInput{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	elapsed := int64(600)
	inactive := false
	updated, err := svc.Update(ctx, timer.ID, UpdateTimerInput{IsActive: &inactive, ElapsedSeconds: &elapsed})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, int64(600), *updated.ElapsedSeconds)

	active := true
	resumed, err := svc.Update(ctx, timer.ID, UpdateTimerInput{IsActive: &active})
	require.NoError(t, err)
	assert.True(t, resumed.IsActive)
	assert.Nil(t, resumed.EndTime)
	assert.Nil(t, resumed.ElapsedSeconds)

	_, err = svc.Update(ctx, 404, UpdateTimerInput{IsActive: &active})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCustomerTimerConcurrentStartKeepsOneActive(t *testing.T) {
	db := newTestDB(t)
	seedTables(t, db, 1)
	svc := NewCustomerTimerService(db, NewTableService(db, nil))
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := svc.Start(ctx, StartTimerInput{TableCode: "T01"})
			assert.NoError(t, err)
			results <- created
		}()
	}
	wg.Wait()
	close(results)

	createdCount := 0
	for created := range results {
		if created {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)

	var active int64
	require.NoError(t, db.Model(&models.CustomerTimer{}).Where("table_id = ? AND is_active = ?", 1, true).Count(&active).Error)
	assert.Equal(t, int64(1), active)
}
