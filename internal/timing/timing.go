// Package timing computes the human-scale delays and activity gating that
// keep agent behavior plausible. Everything here is pure: callers supply
// the clock values and the randomness source.
package timing

import (
	"time"

	"botfarm/internal/config"
	"botfarm/internal/models"
	"botfarm/internal/rng"
)

// Words-per-minute tables by pace.
var (
	readingWPM = map[models.Pace]float64{
		models.PaceQuick:      300,
		models.PaceNormal:     200,
		models.PaceThoughtful: 150,
		models.PaceSlow:       100,
	}
	typingWPM = map[models.Pace]float64{
		models.PaceQuick:      80,
		models.PaceNormal:     60,
		models.PaceThoughtful: 40,
		models.PaceSlow:       30,
	}
)

// Model computes delays under a fixed configuration.
type Model struct {
	cfg config.TimingConfig
}

// New returns a timing model.
func New(cfg config.TimingConfig) *Model {
	return &Model{cfg: cfg}
}

// words estimates word count from character length, five characters per
// word.
func words(contentLength int) float64 {
	if contentLength < 0 {
		contentLength = 0
	}
	return float64(contentLength) / 5
}

// ReadingDelay returns how long an agent spends reading content of the
// given character length, with up or down jitter of 30% and the result
// clamped to the configured bounds.
func (m *Model) ReadingDelay(contentLength int, pace models.Pace, r rng.Rand) time.Duration {
	wpm, ok := readingWPM[pace]
	if !ok {
		wpm = readingWPM[models.PaceNormal]
	}
	minutes := words(contentLength) / wpm
	jitter := 0.7 + r.Float64()*0.6
	d := time.Duration(minutes * jitter * float64(time.Minute))

	if d < m.cfg.MinReadingDelay.Std() {
		d = m.cfg.MinReadingDelay.Std()
	}
	if d > m.cfg.MaxReadingDelay.Std() {
		d = m.cfg.MaxReadingDelay.Std()
	}
	return d
}

// TypingDelay returns how long an agent spends composing a response of the
// given character length: typing time with 20% jitter, plus one to three
// thinking pauses of ten to thirty seconds each for responses longer than
// fifty words. The result never drops below the configured minimum.
func (m *Model) TypingDelay(responseLength int, pace models.Pace, r rng.Rand) time.Duration {
	wpm, ok := typingWPM[pace]
	if !ok {
		wpm = typingWPM[models.PaceNormal]
	}
	w := words(responseLength)
	jitter := 0.8 + r.Float64()*0.4
	d := time.Duration(w / wpm * jitter * float64(time.Minute))

	if w > 50 {
		pauses := 1 + r.IntN(3)
		for i := 0; i < pauses; i++ {
			d += time.Duration(10+r.IntN(21)) * time.Second
		}
	}

	if d < m.cfg.MinDelay.Std() {
		d = m.cfg.MinDelay.Std()
	}
	return d
}

// ActivityGate decides whether an agent acts at all this cycle. Only Active
// agents can pass. The base chance comes from the personality's activity
// level and is scaled by how long the agent has been idle: long-idle agents
// get more eager, recently active ones cool off.
func (m *Model) ActivityGate(status models.AgentStatus, level models.ActivityLevel, lastActive, now time.Time, r rng.Rand) bool {
	if status != models.StatusActive {
		return false
	}

	var chance float64
	switch level {
	case models.ActivityLow:
		chance = 0.1
	case models.ActivityHigh:
		chance = 0.6
	default:
		chance = 0.3
	}

	idle := now.Sub(lastActive)
	switch {
	case idle > 8*time.Hour:
		chance *= 2.0
	case idle > 4*time.Hour:
		chance *= 1.5
	case idle < 30*time.Minute:
		chance *= 0.3
	}
	if chance > 1 {
		chance = 1
	}

	return r.Float64() < chance
}
