package usecase_phase

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"leancoffee/core/internal/model"
)

func runningMeeting(phase model.Phase, endsAt time.Time) *model.Meeting {
	return &model.Meeting{
		ID:          "MEET01",
		Durations:   model.Durations{Create: 5, Voting: 3, Discuss: 5},
		Phase:       phase,
		PhaseEndsAt: endsAt.UnixMilli(),
	}
}

func TestStartDuration(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	minutes := func(n int) *int { return &n }

	testCases := []struct {
		name     string
		phase    model.Phase
		override *int
		want     time.Duration
	}{
		{name: "configured voting duration", phase: model.PhaseVoting, want: 3 * time.Minute},
		{name: "configured create duration", phase: model.PhaseCreate, want: 5 * time.Minute},
		{name: "explicit override", phase: model.PhaseVoting, override: minutes(10), want: 10 * time.Minute},
		{name: "override clamped to one minute", phase: model.PhaseVoting, override: minutes(0), want: time.Minute},
		{name: "override clamped to one hour", phase: model.PhaseVoting, override: minutes(500), want: time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := runningMeeting(model.PhaseNone, time.Time{})
			m.PhasePaused = true
			m.PhaseRemainingMs = 1234

			d := Start(m, tc.phase, tc.override, now)

			assert.Equal(t, tc.want, d)
			assert.Equal(t, tc.phase, m.Phase)
			assert.Equal(t, now.UnixMilli()+tc.want.Milliseconds(), m.PhaseEndsAt)
			assert.False(t, m.PhasePaused, "starting clears pause state")
			assert.Zero(t, m.PhaseRemainingMs)
		})
	}
}

func TestPauseResumePreservesDuration(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m := runningMeeting(model.PhaseVoting, start.Add(3*time.Minute))

	pauseAt := start.Add(70 * time.Second)
	assert.True(t, Pause(m, pauseAt))
	assert.True(t, m.PhasePaused)
	assert.Zero(t, m.PhaseEndsAt)
	assert.Equal(t, (110 * time.Second).Milliseconds(), m.PhaseRemainingMs)

	resumeAt := pauseAt.Add(10 * time.Minute)
	d, ok := Resume(m, resumeAt)
	assert.True(t, ok)
	assert.Equal(t, 110*time.Second, d)
	assert.False(t, m.PhasePaused)

	// originalEndsAt - pauseWallClock == resumedEndsAt - resumeWallClock
	assert.Equal(t,
		start.Add(3*time.Minute).UnixMilli()-pauseAt.UnixMilli(),
		m.PhaseEndsAt-resumeAt.UnixMilli())
}

func TestPauseGates(t *testing.T) {
	now := time.Now()

	idle := runningMeeting(model.PhaseNone, time.Time{})
	assert.False(t, Pause(idle, now), "no phase to pause")

	paused := runningMeeting(model.PhaseVoting, now.Add(time.Minute))
	paused.PhasePaused = true
	assert.False(t, Pause(paused, now), "already paused")

	_, ok := Resume(runningMeeting(model.PhaseVoting, now.Add(time.Minute)), now)
	assert.False(t, ok, "cannot resume a running phase")
}

func TestPausePastDeadlineFloorsAtZero(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m := runningMeeting(model.PhaseVoting, start.Add(time.Minute))

	assert.True(t, Pause(m, start.Add(5*time.Minute)))
	assert.Zero(t, m.PhaseRemainingMs)
}

func TestAddMinute(t *testing.T) {
	now := time.Now()

	t.Run("running phase extends the deadline", func(t *testing.T) {
		m := runningMeeting(model.PhaseVoting, now.Add(time.Minute))
		before := m.PhaseEndsAt

		assert.True(t, AddMinute(m))
		assert.Equal(t, before+60_000, m.PhaseEndsAt)
	})

	t.Run("paused phase extends the remainder", func(t *testing.T) {
		m := runningMeeting(model.PhaseVoting, time.Time{})
		m.PhasePaused = true
		m.PhaseRemainingMs = 30_000

		assert.True(t, AddMinute(m))
		assert.Equal(t, int64(90_000), m.PhaseRemainingMs)
	})

	t.Run("idle meeting rejects the command", func(t *testing.T) {
		m := runningMeeting(model.PhaseNone, time.Time{})
		assert.False(t, AddMinute(m))
	})
}

func TestEndClearsEverything(t *testing.T) {
	m := runningMeeting(model.PhaseDiscuss, time.Now().Add(time.Minute))
	m.CurrentTopicID = "topic1"

	End(m)

	assert.Equal(t, model.PhaseNone, m.Phase)
	assert.Zero(t, m.PhaseEndsAt)
	assert.False(t, m.PhasePaused)
	assert.Zero(t, m.PhaseRemainingMs)
	assert.Equal(t, "topic1", m.CurrentTopicID, "ending a phase does not touch topic state")
}

func TestExpire(t *testing.T) {
	m := runningMeeting(model.PhaseVoting, time.Now())

	Expire(m)

	assert.Equal(t, model.PhaseVoting, m.Phase, "expiry pauses, it does not clear the phase")
	assert.True(t, m.PhasePaused)
	assert.Zero(t, m.PhaseRemainingMs)
	assert.Zero(t, m.PhaseEndsAt)
}

func TestRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	m := runningMeeting(model.PhaseVoting, now.Add(90*time.Second))
	assert.Equal(t, 90*time.Second, Remaining(m, now))
	assert.Equal(t, time.Duration(0), Remaining(m, now.Add(2*time.Minute)), "past deadline floors at zero")

	m.PhasePaused = true
	assert.Equal(t, time.Duration(0), Remaining(m, now), "paused phases have no running deadline")
}

func TestSchedulerReplacesAndCancels(t *testing.T) {
	s := NewScheduler()

	var fired atomic.Int32

	// The first timer is replaced before it can fire, so only the second
	// one counts.
	s.Schedule("MEET01", 10*time.Millisecond, func() { fired.Add(100) })
	s.Schedule("MEET01", 20*time.Millisecond, func() { fired.Add(1) })

	s.Schedule("MEET02", 10*time.Millisecond, func() { fired.Add(100) })
	s.Cancel("MEET02")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestSchedulerIgnoresNonPositiveDelay(t *testing.T) {
	s := NewScheduler()

	var fired atomic.Int32
	s.Schedule("MEET01", 0, func() { fired.Add(1) })

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestClampMinutes(t *testing.T) {
	n := func(v int) *int { return &v }

	assert.Equal(t, 7, ClampMinutes(nil, 7), "absent keeps the fallback")
	assert.Equal(t, 1, ClampMinutes(n(0), 7))
	assert.Equal(t, 60, ClampMinutes(n(600), 7))
	assert.Equal(t, 15, ClampMinutes(n(15), 7))
}

func TestClampVoteLimit(t *testing.T) {
	assert.Equal(t, 1, ClampVoteLimit(0))
	assert.Equal(t, 10, ClampVoteLimit(99))
	assert.Equal(t, 5, ClampVoteLimit(5))
}
