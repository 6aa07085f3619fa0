package posclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < 300,
		"message": message,
		"data":    data,
	})
}

func recordSleeps(sleeps *[]time.Duration) Option {
	return WithSleep(func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	})
}

func TestValidateTableCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["table_code"] == "T01" {
			writeEnvelope(w, http.StatusOK, "Table code is valid", Table{ID: 1, TableNumber: 1, TableCode: "T01"})
			return
		}
		writeEnvelope(w, http.StatusNotFound, "Invalid table code, please check and try again", nil)
	}))
	defer srv.Close()

	c := New(srv.URL)

	res, err := c.ValidateTableCode(context.Background(), "T01")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.False(t, res.Offline)
	require.NotNil(t, res.Table)
	assert.Equal(t, 1, res.Table.TableNumber)

	res, err = c.ValidateTableCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.False(t, res.Offline)
}

func TestValidateTableCodeOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	res, err := New(url).ValidateTableCode(context.Background(), " T07 ")
	require.NoError(t, err)
	assert.True(t, res.Offline)
	assert.False(t, res.Valid)
	assert.Equal(t, "T07", res.TableCode)

	res, err = New("").ValidateTableCode(context.Background(), "T07")
	require.NoError(t, err)
	assert.True(t, res.Offline)
}

func TestCreateReservationRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeEnvelope(w, http.StatusInternalServerError, "Failed to create reservation", nil)
			return
		}
		writeEnvelope(w, http.StatusCreated, "Reservation created successfully",
			ReservationCreated{ID: 5, ReservationCode: "RES1762337400000"})
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := New(srv.URL, recordSleeps(&sleeps))

	created, err := c.CreateReservation(context.Background(), ReservationInput{CustomerName: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, uint(5), created.ID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps)
}

func TestCreateReservationGivesUpAfterThreeAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusServiceUnavailable, "Service unavailable", nil)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	_, err := New(srv.URL, recordSleeps(&sleeps)).CreateReservation(context.Background(), ReservationInput{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Len(t, sleeps, 2)
}

func TestCreateReservationDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeEnvelope(w, http.StatusConflict, "Table is already booked for this time slot", nil)
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithSleep(func(context.Context, time.Duration) error { return nil })).
		CreateReservation(context.Background(), ReservationInput{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Table is already booked for this time slot", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCreateReservationTimeoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeEnvelope(w, http.StatusCreated, "ok", ReservationCreated{ID: 1})
	}))
	defer srv.Close()

	c := New(srv.URL,
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
		WithSleep(func(context.Context, time.Duration) error { return nil }),
	)
	_, err := c.CreateReservation(context.Background(), ReservationInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Request timeout - please try again")
}

func TestRemainingFor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tables/T01/timer":
			_, _ = w.Write([]byte(`{"remainingSec":900,"durationSec":7200}`))
		case "/api/tables/T02/timer":
			writeEnvelope(w, http.StatusOK, "ok", map[string]int{"durationSec": 3600})
		default:
			writeEnvelope(w, http.StatusOK, "ok", map[string]int{"remainingSec": 0})
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	d, err := c.RemainingFor(ctx, "T01")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	d, err = c.RemainingFor(ctx, "T02")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = c.RemainingFor(ctx, "T03")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)
}

func TestStartCountdownSendsMinutes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/refill-timers/T01/start", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("minutes"))
		writeEnvelope(w, http.StatusOK, "Countdown started", Countdown{TableCode: "T01", Display: "00:30:00", Status: "On-going"})
	}))
	defer srv.Close()

	minutes := 30
	snap, err := New(srv.URL).StartCountdown(context.Background(), "T01", &minutes)
	require.NoError(t, err)
	assert.Equal(t, "00:30:00", snap.Display)
}
