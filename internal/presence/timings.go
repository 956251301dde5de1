package presence

import "time"

// Timings are the engine's scheduling constants. The defaults keep the
// 3–4x safety margin between the publish cadence and the staleness
// threshold; shrinking that gap makes flapping visible to observers.
type Timings struct {
	PublishInterval   time.Duration
	SweepInterval     time.Duration
	StaleThreshold    time.Duration
	CountdownInterval time.Duration
	RedirectGrace     time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		PublishInterval:   2 * time.Second,
		SweepInterval:     2 * time.Second,
		StaleThreshold:    7 * time.Second,
		CountdownInterval: time.Second,
		RedirectGrace:     1200 * time.Millisecond,
	}
}

// withDefaults fills any unset field so a partially configured Timings
// still schedules sanely.
func (t Timings) withDefaults() Timings {
	def := DefaultTimings()
	if t.PublishInterval <= 0 {
		t.PublishInterval = def.PublishInterval
	}
	if t.SweepInterval <= 0 {
		t.SweepInterval = def.SweepInterval
	}
	if t.StaleThreshold <= 0 {
		t.StaleThreshold = def.StaleThreshold
	}
	if t.CountdownInterval <= 0 {
		t.CountdownInterval = def.CountdownInterval
	}
	if t.RedirectGrace < 0 {
		t.RedirectGrace = def.RedirectGrace
	}
	return t
}
