package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProofStore struct {
	mu      sync.Mutex
	puts    map[string][]byte
	deleted []string
	putErr  error
}

func (f *fakeProofStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[key] = data
	return "https://cdn.example.test/" + key, nil
}

func (f *fakeProofStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestUploadPaymentProof(t *testing.T) {
	db := newTestDB(t)
	seedTables(t, db, 1)
	reservations := NewReservationService(db, nil, nil, ReservationOptions{})
	res, err := reservations.Create(context.Background(), reservationInput(NumericID(1), "2025-11-05", "18:30"))
	require.NoError(t, err)

	store := &fakeProofStore{}
	svc := NewPaymentProofService(db, store, nil, "")

	updated, err := svc.Upload(context.Background(), res.ID, bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.NoError(t, err)
	require.NotNil(t, updated.PaymentProofKey)
	assert.True(t, strings.HasPrefix(*updated.PaymentProofKey, "reservations/proofs/"+res.ReservationCode+"-"))
	assert.True(t, strings.HasSuffix(*updated.PaymentProofKey, ".png"))
	assert.Equal(t, "https://cdn.example.test/"+*updated.PaymentProofKey, *updated.PaymentProof)
	assert.Equal(t, models.ReservationPending, updated.Status)
	assert.Equal(t, pngHeader, store.puts[*updated.PaymentProofKey])

	firstKey := *updated.PaymentProofKey
	second, err := svc.Upload(context.Background(), res.ID, bytes.NewReader(pngHeader), int64(len(pngHeader)))
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, *second.PaymentProofKey)
	assert.Equal(t, []string{firstKey}, store.deleted)
}

func TestUploadPaymentProofRejects(t *testing.T) {
	db := newTestDB(t)
	seedTables(t, db, 1)
	reservations := NewReservationService(db, nil, nil, ReservationOptions{})
	res, err := reservations.Create(context.Background(), reservationInput(NumericID(1), "2025-11-05", "18:30"))
	require.NoError(t, err)

	svc := NewPaymentProofService(db, &fakeProofStore{}, nil, "proofs")

	t.Run("declared size too large", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), res.ID, bytes.NewReader(pngHeader), MaxProofSize+1)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("body larger than declared", func(t *testing.T) {
		body := append(append([]byte{}, pngHeader...), make([]byte, MaxProofSize)...)
		_, err := svc.Upload(context.Background(), res.ID, bytes.NewReader(body), 10)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), res.ID, strings.NewReader("%PDF-1.7 hello"), 14)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), res.ID, bytes.NewReader(nil), 0)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("missing reservation", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), 404, bytes.NewReader(pngHeader), int64(len(pngHeader)))
		var nf *NotFoundError
		require.ErrorAs(t, err, &nf)
	})
}

func TestUploadPaymentProofUpstream(t *testing.T) {
	db := newTestDB(t)
	seedTables(t, db, 1)
	reservations := NewReservationService(db, nil, nil, ReservationOptions{})
	res, err := reservations.Create(context.Background(), reservationInput(NumericID(1), "2025-11-05", "18:30"))
	require.NoError(t, err)

	t.Run("no store configured", func(t *testing.T) {
		svc := NewPaymentProofService(db, nil, nil, "")
		_, err := svc.Upload(context.Background(), res.ID, bytes.NewReader(pngHeader), int64(len(pngHeader)))
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := NewPaymentProofService(db, &fakeProofStore{putErr: errors.New("bucket offline")}, nil, "")
		_, err := svc.Upload(context.Background(), res.ID, bytes.NewReader(pngHeader), int64(len(pngHeader)))
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)

		stored, err := reservations.Get(context.Background(), res.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.PaymentProof)
	})
}
