package usecase_meeting

import (
	"leancoffee/core/internal/model"
	usecase_phase "leancoffee/core/internal/usecase/phase"
)

// Restore rebuilds the registry from durable storage at startup and
// reconciles every meeting's timer against elapsed wall-clock time:
//
//   - paused meetings keep their frozen remainder untouched;
//   - running meetings with a future deadline get a fresh timer for the
//     residue;
//   - running meetings whose deadline passed while the process was down are
//     parked as Paused with zero remaining, without firing a live expiry
//     event nobody is connected to see.
//
// A missing document is a fresh install, not an error.
func (u *Usecase) Restore() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	meetings, err := u.repo.Load()
	if err != nil {
		return err
	}

	now := u.now()
	for _, m := range meetings {
		if m == nil || m.ID == "" {
			continue
		}
		if m.Participants == nil {
			m.Participants = make(map[string]struct{})
		}
		if m.Votes == nil {
			m.Votes = make(model.VoteLedger)
		}
		for _, t := range m.Topics {
			if t.Voters == nil {
				t.Voters = make(map[string]int)
			}
		}
		// Documents from before these fields existed fall back to the
		// configured defaults.
		if m.MaxVotes <= 0 {
			m.MaxVotes = u.defaults.MaxVotes
		}
		if m.Durations.Create <= 0 {
			m.Durations.Create = u.defaults.Durations.Create
		}
		if m.Durations.Voting <= 0 {
			m.Durations.Voting = u.defaults.Durations.Voting
		}
		if m.Durations.Discuss <= 0 {
			m.Durations.Discuss = u.defaults.Durations.Discuss
		}

		if m.Phase != model.PhaseNone && !m.PhasePaused {
			switch {
			case m.PhaseEndsAt > now.UnixMilli():
				u.scheduler.Schedule(m.ID, usecase_phase.Remaining(m, now), u.expiryFunc(m.ID))
			default:
				// Expired (or lost its deadline) while down.
				usecase_phase.Expire(m)
			}
		}

		u.meetings[normalizeLookup(m.ID)] = m
	}

	u.logger.Info("meetings restored", "count", len(u.meetings))
	return nil
}
