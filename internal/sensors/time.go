package sensors

import (
	"fmt"
	"time"

	"ghost/internal/emotion"
)

// TimeSensor reports wall-clock time and the circadian phase.
type TimeSensor struct {
	rhythm *emotion.Rhythm

	// Injectable for tests.
	now func() time.Time
}

func NewTimeSensor() *TimeSensor {
	return &TimeSensor{
		rhythm: emotion.NewRhythm(),
		now:    time.Now,
	}
}

func (s *TimeSensor) Name() string { return "time" }

func (s *TimeSensor) Context() string {
	now := s.now()
	return fmt.Sprintf("Time Context:\n- Current Time: %s\n- Circadian Phase: %s",
		now.Format("3:04 PM"), s.rhythm.PhaseDescription())
}
