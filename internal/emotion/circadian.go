package emotion

import (
	"math"
	"time"
)

// Rhythm maps wall-clock time onto mood and proactivity modifiers.
// The clock is injectable for tests.
type Rhythm struct {
	Now func() time.Time
}

func NewRhythm() *Rhythm {
	return &Rhythm{Now: time.Now}
}

// PhaseDescription names the current time-of-day phase.
func (r *Rhythm) PhaseDescription() string {
	hour := r.Now().Hour()
	switch {
	case hour >= 5 && hour < 9:
		return "Early Morning (Waking Up)"
	case hour >= 9 && hour < 12:
		return "Morning (Alert)"
	case hour >= 12 && hour < 14:
		return "Midday (Peak Energy)"
	case hour >= 14 && hour < 18:
		return "Afternoon (Active)"
	case hour >= 18 && hour < 22:
		return "Evening (Winding Down)"
	case hour >= 22:
		return "Late Night (Low Energy)"
	default:
		return "Deep Night (Sleepy)"
	}
}

// Influence returns the circadian PAD deltas. Arousal follows a sinusoid
// peaking at 14:00; pleasure and dominance step with daylight hours.
func (r *Rhythm) Influence() (dp, da, dd float64) {
	hour := r.Now().Hour()

	da = math.Sin(float64(hour-14) * math.Pi / 12)

	dp = -0.1
	if hour >= 8 && hour < 20 {
		dp = 0.2
	}

	dd = -0.2
	if hour >= 9 && hour < 18 {
		dd = 0.3
	}
	return dp, da, dd
}

// ProactivityModifier scales the autonomous trigger probability by time
// of day. The agent mostly keeps quiet at night.
func (r *Rhythm) ProactivityModifier() float64 {
	hour := r.Now().Hour()
	switch {
	case hour >= 9 && hour < 22:
		return 1.0
	case hour >= 22 || hour < 6:
		return 0.1
	default:
		return 0.5
	}
}
