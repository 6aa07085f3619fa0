package refilltimer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/metrics"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/realtime"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/sirupsen/logrus"
)

// Status countdown
const (
	StatusOngoing   = "On-going"
	StatusCompleted = "Completed"
)

var ErrNoCountdown = errors.New("no countdown running for this table")

// Completer menandai refill terakhir sebagai completed saat waktu habis
type Completer interface {
	CompleteRefill(ctx context.Context, refillID uint) error
}

// RemoteSource -> sisa waktu menurut POS, 0 jika tidak diketahui
type RemoteSource interface {
	RemainingFor(ctx context.Context, tableCode string) (time.Duration, error)
}

type Options struct {
	DefaultDuration time.Duration
	MinDuration     time.Duration
	// ExpiryDelay -> jeda sebelum event refill-timer-expired dikirim
	ExpiryDelay time.Duration
	// TickInterval 0 berarti tanpa watcher, ekspirasi hanya terjadi lewat Tick
	TickInterval time.Duration

	Now       func() time.Time
	AfterFunc func(d time.Duration, f func())
}

func DefaultOptions() Options {
	return Options{
		DefaultDuration: 2 * time.Hour,
		MinDuration:     time.Minute,
		ExpiryDelay:     time.Second,
		TickInterval:    time.Second,
	}
}

// Snapshot -> state countdown yang dikirim ke kiosk
type Snapshot struct {
	TableCode        string `json:"table_code"`
	Status           string `json:"status"`
	DeadlineMs       int64  `json:"deadline_ms"`
	DurationSeconds  int64  `json:"duration_seconds"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Display          string `json:"display"`
	LastRefillID     *uint  `json:"last_refill_id,omitempty"`
	Source           Source `json:"source"`
	Resumed          bool   `json:"resumed"`
}

// session -> state proses untuk satu countdown, deadlineMs mengikat
// ekspirasi ke deadline yang sedang berjalan
type session struct {
	deadlineMs int64
	expired    bool
	cancel     context.CancelFunc
}

// Coordinator menjaga satu countdown per meja dan menjamin ekspirasi
// hanya diproses sekali per deadline
type Coordinator struct {
	store     Store
	completer Completer
	remote    RemoteSource
	notifier  realtime.Publisher
	opts      Options

	mu       sync.Mutex
	sessions map[string]*session
	wg       sync.WaitGroup
}

func NewCoordinator(store Store, completer Completer, remote RemoteSource, notifier realtime.Publisher, opts Options) *Coordinator {
	defaults := DefaultOptions()
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = defaults.DefaultDuration
	}
	if opts.MinDuration <= 0 {
		opts.MinDuration = defaults.MinDuration
	}
	if opts.ExpiryDelay < 0 {
		opts.ExpiryDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return &Coordinator{
		store:     store,
		completer: completer,
		remote:    remote,
		notifier:  notifier,
		opts:      opts,
		sessions:  make(map[string]*session),
	}
}

// Begin memulai countdown untuk meja. Deadline yang masih berjalan dipakai
// lagi (resume), deadline yang hilang atau sudah lewat diganti baru.
func (c *Coordinator) Begin(ctx context.Context, tableCode string, minutes *int) (Snapshot, error) {
	code := strings.TrimSpace(tableCode)
	if code == "" {
		return Snapshot{}, fmt.Errorf("table code is required")
	}
	now := c.opts.Now()

	configured, hasConfigured, err := c.store.ConfiguredDuration(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	duration := c.opts.chooseDuration(minutes, configured, hasConfigured)

	local, found, err := c.store.Deadline(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	resumed := found && local.Remaining(now) > 0
	if !resumed {
		local = Deadline{At: now.Add(duration), Duration: duration}
	}

	deadline, source := ResolveDeadline(now, local, c.remainingFromPOS(ctx, code))
	if !resumed || source == SourceRemote {
		if err := c.store.SetDeadline(ctx, code, deadline); err != nil {
			return Snapshot{}, err
		}
	}

	c.mu.Lock()
	if s, ok := c.sessions[code]; ok && s.cancel != nil && !resumed {
		s.cancel()
	}
	s, ok := c.sessions[code]
	if !ok || !resumed {
		s = &session{}
		c.sessions[code] = s
	}
	s.deadlineMs = deadline.At.UnixMilli()
	c.mu.Unlock()

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_code":  code,
		"duration":    deadline.Duration.String(),
		"source":      source,
		"resumed":     resumed,
		"deadline_at": deadline.At.Format(time.RFC3339),
	}).Info("Refill countdown started")

	if c.opts.TickInterval > 0 {
		c.Watch(code)
	}

	snap, err := c.snapshot(ctx, code, deadline, now)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Source = source
	snap.Resumed = resumed
	return snap, nil
}

func (c *Coordinator) remainingFromPOS(ctx context.Context, code string) time.Duration {
	if c.remote == nil {
		return 0
	}
	remaining, err := c.remote.RemainingFor(ctx, code)
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"table_code": code,
			"error":      err.Error(),
		}).Warn("POS timer unavailable, using local deadline")
		return 0
	}
	return remaining
}

// Tick menghitung ulang sisa waktu dari deadline absolut dan memproses
// ekspirasi saat sisa waktu mencapai 0
func (c *Coordinator) Tick(ctx context.Context, tableCode string) (Snapshot, error) {
	code := strings.TrimSpace(tableCode)
	now := c.opts.Now()

	deadline, found, err := c.store.Deadline(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	if !found {
		c.mu.Lock()
		s, ok := c.sessions[code]
		expired := ok && s.expired
		c.mu.Unlock()
		if expired {
			return Snapshot{TableCode: code, Status: StatusCompleted, Display: FormatClock(0), Source: SourceLocal}, nil
		}
		return Snapshot{}, ErrNoCountdown
	}

	snap, err := c.snapshot(ctx, code, deadline, now)
	if err != nil {
		return Snapshot{}, err
	}
	if snap.RemainingSeconds > 0 {
		return snap, nil
	}

	if c.markExpired(code, deadline.At.UnixMilli()) {
		c.expire(ctx, code, deadline, snap.LastRefillID)
	}
	snap.Status = StatusCompleted
	return snap, nil
}

// markExpired -> true hanya untuk pemanggil pertama per deadline. Tick yang
// membaca deadline lama setelah Begin memasang deadline baru selalu false.
func (c *Coordinator) markExpired(code string, deadlineMs int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[code]
	if !ok {
		// setelah restart belum ada session, deadline tersimpan jadi pemiliknya
		s = &session{deadlineMs: deadlineMs}
		c.sessions[code] = s
	}
	if s.deadlineMs == 0 {
		s.deadlineMs = deadlineMs
	}
	if s.deadlineMs != deadlineMs || s.expired {
		return false
	}
	s.expired = true
	return true
}

func (c *Coordinator) expire(ctx context.Context, code string, deadline Deadline, lastRefillID *uint) {
	metrics.RefillTimerExpirations.Inc()

	fields := logrus.Fields{"table_code": code}
	if lastRefillID != nil && c.completer != nil {
		fields["refill_id"] = *lastRefillID
		// request asal bisa saja sudah selesai, penyelesaian tetap dijalankan
		if err := c.completer.CompleteRefill(context.WithoutCancel(ctx), *lastRefillID); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"table_code": code,
				"refill_id":  *lastRefillID,
				"error":      err.Error(),
			}).Warn("Failed to complete refill request on timer expiry")
		}
	}

	cleared, err := c.store.ClearDeadline(context.WithoutCancel(ctx), code, deadline.At)
	if err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"table_code": code,
			"error":      err.Error(),
		}).Error("Failed to clear refill timer state")
	}
	if err == nil && !cleared {
		utils.InfoLogger.WithFields(fields).Info("Refill countdown replaced before expiry cleanup, keeping new deadline")
	}

	utils.InfoLogger.WithFields(fields).Info("Refill countdown expired")

	if c.notifier == nil {
		return
	}
	payload := map[string]interface{}{
		"table_code": code,
		"refill_id":  lastRefillID,
		"expired_at": c.opts.Now(),
	}
	c.opts.AfterFunc(c.opts.ExpiryDelay, func() {
		c.notifier.Publish(realtime.RoomAdmin, realtime.EventRefillTimerExpired, payload)
		c.notifier.Publish(realtime.RoomPOS, realtime.EventRefillTimerExpired, payload)
	})
}

func (c *Coordinator) snapshot(ctx context.Context, code string, d Deadline, now time.Time) (Snapshot, error) {
	remaining := d.Remaining(now)
	snap := Snapshot{
		TableCode:        code,
		Status:           StatusOngoing,
		DeadlineMs:       d.At.UnixMilli(),
		DurationSeconds:  int64(d.Duration / time.Second),
		RemainingSeconds: int64(remaining / time.Second),
		Display:          FormatClock(remaining),
		Source:           SourceLocal,
	}
	if remaining <= 0 {
		snap.Status = StatusCompleted
	}

	id, ok, err := c.store.LastRefillID(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	if ok {
		snap.LastRefillID = &id
	}
	return snap, nil
}

// Watch menjalankan ticker untuk meja sampai countdown selesai atau di-Stop
func (c *Coordinator) Watch(tableCode string) {
	interval := c.opts.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	c.mu.Lock()
	s, ok := c.sessions[tableCode]
	if !ok {
		s = &session{}
		c.sessions[tableCode] = s
	}
	if s.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap, err := c.Tick(ctx, tableCode)
				if errors.Is(err, ErrNoCountdown) || (err == nil && snap.Status == StatusCompleted) {
					c.clearWatcher(tableCode, s)
					return
				}
				if err != nil {
					utils.ErrorLogger.WithFields(logrus.Fields{
						"table_code": tableCode,
						"error":      err.Error(),
					}).Warn("Refill countdown tick failed")
				}
			}
		}
	}()
}

func (c *Coordinator) clearWatcher(code string, owner *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner.cancel != nil {
		owner.cancel()
		owner.cancel = nil
	}
}

// RecordRefill mengingat refill terakhir dari meja, dipanggil setelah submit berhasil
func (c *Coordinator) RecordRefill(ctx context.Context, tableCode string, refillID uint) error {
	return c.store.SetLastRefillID(ctx, strings.TrimSpace(tableCode), refillID)
}

// Reset menghapus countdown meja tanpa menyelesaikan refill
func (c *Coordinator) Reset(ctx context.Context, tableCode string) error {
	code := strings.TrimSpace(tableCode)
	c.mu.Lock()
	if s, ok := c.sessions[code]; ok {
		if s.cancel != nil {
			s.cancel()
		}
		delete(c.sessions, code)
	}
	c.mu.Unlock()

	if err := c.store.Clear(ctx, code); err != nil {
		return err
	}
	utils.InfoLogger.WithField("table_code", code).Info("Refill countdown reset")
	return nil
}

// Configure -> durasi admin untuk countdown berikutnya
func (c *Coordinator) Configure(ctx context.Context, tableCode string, d time.Duration) error {
	if d < c.opts.MinDuration {
		d = c.opts.MinDuration
	}
	return c.store.SetConfiguredDuration(ctx, strings.TrimSpace(tableCode), d)
}

// Resume dipanggil saat startup: countdown tersimpan yang sudah lewat
// langsung diproses, sisanya diawasi lagi
func (c *Coordinator) Resume(ctx context.Context) error {
	codes, err := c.store.TableCodes(ctx)
	if err != nil {
		return err
	}
	for _, code := range codes {
		snap, err := c.Tick(ctx, code)
		if err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"table_code": code,
				"error":      err.Error(),
			}).Warn("Failed to resume refill countdown")
			continue
		}
		if snap.Status == StatusOngoing && c.opts.TickInterval > 0 {
			c.Watch(code)
		}
	}
	utils.InfoLogger.WithField("count", len(codes)).Info("Refill countdowns resumed")
	return nil
}

// Active -> snapshot semua countdown yang masih berjalan, tanpa memproses ekspirasi
func (c *Coordinator) Active(ctx context.Context) ([]Snapshot, error) {
	codes, err := c.store.TableCodes(ctx)
	if err != nil {
		return nil, err
	}
	now := c.opts.Now()
	active := []Snapshot{}
	for _, code := range codes {
		d, found, err := c.store.Deadline(ctx, code)
		if err != nil {
			return nil, err
		}
		if !found || d.Remaining(now) <= 0 {
			continue
		}
		snap, err := c.snapshot(ctx, code, d, now)
		if err != nil {
			return nil, err
		}
		active = append(active, snap)
	}
	return active, nil
}

// Stop menghentikan semua watcher dan menunggu goroutine selesai
func (c *Coordinator) Stop() {
	c.mu.Lock()
	for _, s := range c.sessions {
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
	c.mu.Unlock()
	c.wg.Wait()
}
