package netmon

import "time"

// TrafficRates holds per-second rates derived from two consecutive traffic
// snapshots of one interface.
type TrafficRates struct {
	Interface      string
	Interval       time.Duration
	BytesRecvPer   float64 // bytes/s received
	BytesSentPer   float64 // bytes/s sent
	PacketsRecvPer float64 // packets/s received
	PacketsSentPer float64 // packets/s sent
	// A counter went backwards between the snapshots (reboot, counter wrap)
	ResetDetected bool
}

// RateTracker computes per-interface traffic rates between consecutive
// snapshots. Counters that go backwards are treated as resets and yield a
// zero delta for that sample.
type RateTracker struct {
	last     map[string]TrafficStats
	lastTime time.Time
	first    bool
}

func NewRateTracker() *RateTracker {
	return &RateTracker{
		last:  make(map[string]TrafficStats),
		first: true,
	}
}

// Reset clears all tracked state.
func (t *RateTracker) Reset() {
	t.last = make(map[string]TrafficStats)
	t.lastTime = time.Time{}
	t.first = true
}

// Update records a snapshot and returns the rates since the previous one.
// The first call establishes the baseline and returns nil.
func (t *RateTracker) Update(stats []TrafficStats, now time.Time) []TrafficRates {
	defer func() {
		next := make(map[string]TrafficStats, len(stats))
		for _, s := range stats {
			next[s.Interface] = s
		}
		t.last = next
		t.lastTime = now
		t.first = false
	}()

	if t.first || t.lastTime.IsZero() {
		return nil
	}

	interval := now.Sub(t.lastTime)
	if interval <= 0 {
		return nil
	}
	secs := interval.Seconds()

	rates := make([]TrafficRates, 0, len(stats))
	for _, s := range stats {
		prev, ok := t.last[s.Interface]
		if !ok {
			// Interface appeared since the last snapshot
			continue
		}

		r := TrafficRates{Interface: s.Interface, Interval: interval}

		var reset bool
		r.BytesRecvPer, reset = rate(s.BytesRecv, prev.BytesRecv, secs)
		r.ResetDetected = r.ResetDetected || reset
		r.BytesSentPer, reset = rate(s.BytesSent, prev.BytesSent, secs)
		r.ResetDetected = r.ResetDetected || reset
		r.PacketsRecvPer, reset = rate(s.PacketsRecv, prev.PacketsRecv, secs)
		r.ResetDetected = r.ResetDetected || reset
		r.PacketsSentPer, reset = rate(s.PacketsSent, prev.PacketsSent, secs)
		r.ResetDetected = r.ResetDetected || reset

		rates = append(rates, r)
	}
	return rates
}

// rate calculates a per-second rate with counter-reset detection. A current
// value below the previous one means the counter was reset (reboot, wrap) and
// yields a zero rate.
func rate(current, previous uint64, secs float64) (float64, bool) {
	if current < previous {
		return 0, true
	}
	return float64(current-previous) / secs, false
}
