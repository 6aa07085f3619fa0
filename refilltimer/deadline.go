package refilltimer

import (
	"fmt"
	"time"
)

// Source -> asal deadline yang sedang dipakai
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// ResolveDeadline -> sisa waktu dari POS (jika > 0) menimpa deadline lokal
func ResolveDeadline(now time.Time, local Deadline, remoteRemaining time.Duration) (Deadline, Source) {
	if remoteRemaining <= 0 {
		return local, SourceLocal
	}
	duration := local.Duration
	if duration <= 0 {
		duration = remoteRemaining
	}
	return Deadline{At: now.Add(remoteRemaining), Duration: duration}, SourceRemote
}

// chooseDuration -> menit dari query (min 60 detik), lalu durasi admin, lalu default
func (o Options) chooseDuration(minutes *int, configured time.Duration, hasConfigured bool) time.Duration {
	if minutes != nil {
		d := time.Duration(*minutes) * time.Minute
		if d < o.MinDuration {
			d = o.MinDuration
		}
		return d
	}
	if hasConfigured && configured > 0 {
		return configured
	}
	return o.DefaultDuration
}

// FormatClock -> "HH:MM:SS"
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
