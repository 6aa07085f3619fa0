package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCustomer(t *testing.T) {
	db := newTestDB(t)
	seedTables(t, db, 1)
	svc := NewCustomerService(db)
	ctx := context.Background()

	free := seedCustomer(t, db)
	require.NoError(t, svc.Delete(ctx, free.ID))
	_, err := svc.Get(ctx, free.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	err = svc.Delete(ctx, free.ID)
	require.ErrorAs(t, err, &nf)

	busy := seedCustomer(t, db)
	input := reservationInput(NumericID(1), "2025-11-05", "18:30")
	input.CustomerID = &busy.ID
	_, err = NewReservationService(db, nil, nil, ReservationOptions{}).Create(ctx, input)
	require.NoError(t, err)

	err = svc.Delete(ctx, busy.ID)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Message, "1 reservation(s)")

	stored, err := svc.Get(ctx, busy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria Santos", stored.FullName())
}
