package refilltimer

import (
	"context"
	"time"
)

// Deadline -> titik akhir countdown absolut beserta durasi awalnya
type Deadline struct {
	At       time.Time
	Duration time.Duration
}

func (d Deadline) IsZero() bool {
	return d.At.IsZero()
}

// Remaining -> max(0, floor((deadline-now)/1s)), selalu dihitung ulang dari
// deadline absolut, bukan dari counter
func (d Deadline) Remaining(now time.Time) time.Duration {
	left := d.At.Sub(now)
	if left <= 0 {
		return 0
	}
	return left.Truncate(time.Second)
}

// Store menyimpan state countdown per table_code
type Store interface {
	Deadline(ctx context.Context, tableCode string) (Deadline, bool, error)
	SetDeadline(ctx context.Context, tableCode string, d Deadline) error

	LastRefillID(ctx context.Context, tableCode string) (uint, bool, error)
	SetLastRefillID(ctx context.Context, tableCode string, id uint) error

	// ConfiguredDuration -> durasi yang diatur admin untuk sesi berikutnya
	ConfiguredDuration(ctx context.Context, tableCode string) (time.Duration, bool, error)
	SetConfiguredDuration(ctx context.Context, tableCode string, d time.Duration) error

	// Clear menghapus deadline, durasi dan last refill id, durasi admin tetap
	Clear(ctx context.Context, tableCode string) error
	// ClearDeadline sama dengan Clear tapi hanya jika deadline tersimpan masih at,
	// false berarti countdown sudah diganti
	ClearDeadline(ctx context.Context, tableCode string, at time.Time) (bool, error)

	// TableCodes -> meja yang masih punya deadline tersimpan
	TableCodes(ctx context.Context) ([]string, error)
}
