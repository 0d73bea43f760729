package usecase_phase

import (
	"time"

	"leancoffee/core/internal/model"
)

// Phase duration bounds, applied to both configured durations and explicit
// start overrides.
const (
	MinDuration = time.Minute
	MaxDuration = time.Hour

	MinConfigMinutes = 1
	MaxConfigMinutes = 60

	MinVoteLimit = 1
	MaxVoteLimit = 10
)

// ClampMinutes bounds a configured phase duration, falling back when the
// value is absent.
func ClampMinutes(minutes *int, fallback int) int {
	if minutes == nil {
		return fallback
	}
	n := *minutes
	if n < MinConfigMinutes {
		return MinConfigMinutes
	}
	if n > MaxConfigMinutes {
		return MaxConfigMinutes
	}
	return n
}

// ClampVoteLimit bounds the per-participant vote budget.
func ClampVoteLimit(n int) int {
	if n < MinVoteLimit {
		return MinVoteLimit
	}
	if n > MaxVoteLimit {
		return MaxVoteLimit
	}
	return n
}

func configured(m *model.Meeting, phase model.Phase) int {
	switch phase {
	case model.PhaseCreate:
		return m.Durations.Create
	case model.PhaseVoting:
		return m.Durations.Voting
	case model.PhaseDiscuss:
		return m.Durations.Discuss
	}
	return 0
}

// Start moves the meeting into Running for the given phase. The effective
// duration is the override when supplied, else the configured duration,
// clamped to [MinDuration, MaxDuration]. Any previous pause state is cleared.
func Start(m *model.Meeting, phase model.Phase, overrideMinutes *int, now time.Time) time.Duration {
	minutes := configured(m, phase)
	if overrideMinutes != nil {
		minutes = *overrideMinutes
	}
	d := time.Duration(minutes) * time.Minute
	if d < MinDuration {
		d = MinDuration
	}
	if d > MaxDuration {
		d = MaxDuration
	}

	m.Phase = phase
	m.PhaseEndsAt = now.UnixMilli() + d.Milliseconds()
	m.PhasePaused = false
	m.PhaseRemainingMs = 0
	return d
}

// Pause freezes a running phase, converting the deadline into a remaining
// interval. Valid only while Running.
func Pause(m *model.Meeting, now time.Time) bool {
	if m.Phase == model.PhaseNone || m.PhasePaused {
		return false
	}
	remaining := m.PhaseEndsAt - now.UnixMilli()
	if remaining < 0 {
		remaining = 0
	}
	m.PhaseRemainingMs = remaining
	m.PhaseEndsAt = 0
	m.PhasePaused = true
	return true
}

// Resume continues a paused phase with whatever interval was left.
func Resume(m *model.Meeting, now time.Time) (time.Duration, bool) {
	if m.Phase == model.PhaseNone || !m.PhasePaused {
		return 0, false
	}
	remaining := m.PhaseRemainingMs
	if remaining < 0 {
		remaining = 0
	}
	m.PhaseEndsAt = now.UnixMilli() + remaining
	m.PhaseRemainingMs = 0
	m.PhasePaused = false
	return time.Duration(remaining) * time.Millisecond, true
}

// AddMinute extends the active phase by one minute, on the deadline when
// Running and on the frozen remainder when Paused.
func AddMinute(m *model.Meeting) bool {
	if m.Phase == model.PhaseNone {
		return false
	}
	if m.PhasePaused {
		m.PhaseRemainingMs += 60_000
		if m.PhaseRemainingMs < 0 {
			m.PhaseRemainingMs = 0
		}
	} else if m.PhaseEndsAt != 0 {
		m.PhaseEndsAt += 60_000
	}
	return true
}

// End clears the phase entirely. Topic state is untouched.
func End(m *model.Meeting) {
	m.Phase = model.PhaseNone
	m.PhaseEndsAt = 0
	m.PhasePaused = false
	m.PhaseRemainingMs = 0
}

// Expire marks a running phase as timed out: Paused with nothing left.
func Expire(m *model.Meeting) {
	m.PhasePaused = true
	m.PhaseRemainingMs = 0
	m.PhaseEndsAt = 0
}

// Remaining reports how long a running phase still has; zero when idle,
// paused, or already past the deadline.
func Remaining(m *model.Meeting, now time.Time) time.Duration {
	if m.Phase == model.PhaseNone || m.PhasePaused || m.PhaseEndsAt == 0 {
		return 0
	}
	ms := m.PhaseEndsAt - now.UnixMilli()
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}
