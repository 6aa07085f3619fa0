package posclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout = 10 * time.Second

	reservationAttempts = 3

	timeoutMessage = "Request timeout - please try again"
)

// ErrNotConfigured -> base URL kosong, pemanggil masuk mode offline
var ErrNotConfigured = errors.New("pos base url is not configured")

// APIError -> response non-2xx dari server, Message diambil dari envelope
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pos returned %d: %s", e.StatusCode, e.Message)
}

// Client -> HTTP client ke backend restoran / POS
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithSleep mengganti fungsi tunggu antar retry (dipakai di test)
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// do mengirim request JSON dan men-decode field data dari envelope ke out
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%s: %w", timeoutMessage, err)
		}
		return fmt.Errorf("pos request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	payload := env.Data
	if len(payload) == 0 || string(payload) == "null" {
		payload = raw
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// retryable -> network error, timeout dan 5xx. 4xx dikembalikan langsung.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return !errors.Is(err, ErrNotConfigured) && !errors.Is(err, context.Canceled)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ValidateTableCode -> Offline=true jika server tidak terjangkau, kode mentah tetap dipakai
func (c *Client) ValidateTableCode(ctx context.Context, code string) (TableValidation, error) {
	code = strings.TrimSpace(code)
	result := TableValidation{TableCode: code}

	var table Table
	err := c.do(ctx, http.MethodPost, "/api/refill-requests/validate-table", map[string]string{"table_code": code}, &table)
	var apiErr *APIError
	switch {
	case err == nil:
		result.Valid = true
		result.Table = &table
		return result, nil
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return result, nil
	case errors.As(err, &apiErr) && apiErr.StatusCode < 500:
		return result, err
	}

	result.Offline = true
	utils.ErrorLogger.WithFields(logrus.Fields{
		"table_code": code,
		"error":      err.Error(),
	}).Warn("Table validation unavailable, continuing in offline mode")
	return result, nil
}

func (c *Client) CreateRefillRequest(ctx context.Context, req RefillRequestInput) (*RefillRequest, error) {
	var created RefillRequest
	if err := c.do(ctx, http.MethodPost, "/api/refill-requests", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateRefillRequestStatus(ctx context.Context, id uint, status, processedBy string) (*RefillRequest, error) {
	body := map[string]string{"status": status}
	if processedBy != "" {
		body["processed_by"] = processedBy
	}
	var updated RefillRequest
	path := fmt.Sprintf("/api/refill-requests/%d/status", id)
	if err := c.do(ctx, http.MethodPatch, path, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// StartCountdown -> minutes nil berarti pakai durasi admin atau default server
func (c *Client) StartCountdown(ctx context.Context, code string, minutes *int) (*Countdown, error) {
	path := "/api/refill-timers/" + url.PathEscape(code) + "/start"
	if minutes != nil {
		path += "?minutes=" + strconv.Itoa(*minutes)
	}
	var snap Countdown
	if err := c.do(ctx, http.MethodPost, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) Countdown(ctx context.Context, code string) (*Countdown, error) {
	var snap Countdown
	if err := c.do(ctx, http.MethodGet, "/api/refill-timers/"+url.PathEscape(code), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// RemainingFor membaca timer meja dari POS: remainingSec, atau durationSec jika tidak ada
func (c *Client) RemainingFor(ctx context.Context, code string) (time.Duration, error) {
	var timer posTimer
	if err := c.do(ctx, http.MethodGet, "/api/tables/"+url.PathEscape(code)+"/timer", nil, &timer); err != nil {
		return 0, err
	}
	secs := timer.DurationSec
	if timer.RemainingSec != nil {
		secs = timer.RemainingSec
	}
	if secs == nil || *secs <= 0 {
		return 0, nil
	}
	return time.Duration(*secs) * time.Second, nil
}

// CreateReservation mencoba maksimal 3 kali dengan backoff linear 1s, 2s
func (c *Client) CreateReservation(ctx context.Context, input ReservationInput) (*ReservationCreated, error) {
	var lastErr error
	for attempt := 1; attempt <= reservationAttempts; attempt++ {
		var created ReservationCreated
		err := c.do(ctx, http.MethodPost, "/api/reservations", input, &created)
		if err == nil {
			return &created, nil
		}
		lastErr = err
		if !retryable(err) || attempt == reservationAttempts {
			break
		}

		utils.ErrorLogger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Reservation submit failed, retrying")

		if err := c.sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}
