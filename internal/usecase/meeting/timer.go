package usecase_meeting

import (
	"leancoffee/core/internal/model"
	usecase_phase "leancoffee/core/internal/usecase/phase"
)

// Phase commands. Every transition that leaves Running cancels the pending
// expiry timer before returning, so a stale timer cannot fire after the
// meeting has moved to a new state.

// StartPhase begins a timed phase from any state. Starting discuss needs a
// target topic: the explicit one when given, else the current topic; with
// neither resolving, the command is a no-op.
func (u *Usecase) StartPhase(meetingID, adminToken string, phase model.Phase, minutes *int, topicID string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) || !phase.Valid() {
		return
	}
	if phase == model.PhaseDiscuss {
		topic := m.FindTopic(topicID)
		if topic == nil && m.CurrentTopicID != "" {
			topic = m.FindTopic(m.CurrentTopicID)
		}
		if topic == nil {
			return
		}
		m.CurrentTopicID = topic.ID
	}

	d := usecase_phase.Start(m, phase, minutes, u.now())

	u.broadcastStateLocked(m)
	u.scheduler.Schedule(m.ID, d, u.expiryFunc(m.ID))
	u.persistLocked()
}

// AddMinute extends the active phase by one minute.
func (u *Usecase) AddMinute(meetingID, adminToken string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) {
		return
	}
	if !usecase_phase.AddMinute(m) {
		return
	}

	u.broadcastStateLocked(m)
	if m.PhasePaused {
		u.scheduler.Cancel(m.ID)
	} else {
		u.scheduler.Schedule(m.ID, usecase_phase.Remaining(m, u.now()), u.expiryFunc(m.ID))
	}
	u.persistLocked()
}

// EndPhase returns the meeting to idle without touching topics.
func (u *Usecase) EndPhase(meetingID, adminToken string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) {
		return
	}

	usecase_phase.End(m)

	u.broadcastStateLocked(m)
	u.scheduler.Cancel(m.ID)
	u.persistLocked()
}

// PausePhase freezes a running phase.
func (u *Usecase) PausePhase(meetingID, adminToken string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) {
		return
	}
	if !usecase_phase.Pause(m, u.now()) {
		return
	}

	u.broadcastStateLocked(m)
	u.scheduler.Cancel(m.ID)
	u.persistLocked()
}

// ResumePhase continues a paused phase with the frozen remainder.
func (u *Usecase) ResumePhase(meetingID, adminToken string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) {
		return
	}
	d, ok := usecase_phase.Resume(m, u.now())
	if !ok {
		return
	}

	u.broadcastStateLocked(m)
	u.scheduler.Schedule(m.ID, d, u.expiryFunc(m.ID))
	u.persistLocked()
}

func (u *Usecase) expiryFunc(meetingID string) func() {
	return func() {
		u.expire(meetingID)
	}
}

// expire handles the scheduled deadline. It is the one transition not gated
// by an admin action. The meeting may have moved on between the timer firing
// and the lock being taken, so the running state is re-checked before
// anything happens; a stale firing is discarded.
func (u *Usecase) expire(meetingID string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.meetings[meetingID]
	if !ok {
		return
	}
	if m.Phase == model.PhaseNone || m.PhasePaused || m.PhaseEndsAt == 0 {
		return
	}
	if u.now().UnixMilli() < m.PhaseEndsAt {
		return
	}

	expiredPhase := m.Phase
	usecase_phase.Expire(m)

	u.logger.Info("phase expired", "meeting_id", m.ID, "phase", expiredPhase)
	u.broadcastStateLocked(m)
	u.broadcaster.ToMeeting(m.ID, EventPhaseExpired, map[string]any{
		"phase":     expiredPhase,
		"meetingId": m.ID,
	})
	u.persistLocked()
}
