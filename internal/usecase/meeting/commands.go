package usecase_meeting

import (
	"leancoffee/core/internal/model"
	usecase_phase "leancoffee/core/internal/usecase/phase"
	usecase_vote "leancoffee/core/internal/usecase/vote"
)

// Command handlers. Rejected commands (bad token, missing meeting or topic,
// wrong phase, exhausted budget) are silent no-ops: no state change, no
// broadcast. The worst outcome a client can observe is "nothing happened".

// SubmitTopic adds a topic during the create phase (or before any phase has
// started). Titles are truncated before storage.
func (u *Usecase) SubmitTopic(meetingID, title, authorID string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || title == "" || authorID == "" {
		return
	}
	if m.Phase != model.PhaseNone && m.Phase != model.PhaseCreate {
		return
	}

	topic := &model.Topic{
		ID:        randomCode(topicIDAlphabet, topicIDLen),
		Title:     truncate(title, maxTitleLen),
		AuthorID:  authorID,
		Voters:    make(map[string]int),
		Column:    model.ColumnTodo,
		CreatedAt: u.now().UnixMilli(),
	}
	m.Topics = append(m.Topics, topic)

	u.broadcastStateLocked(m)
	u.broadcaster.ToMeeting(m.ID, EventTopicAdded, map[string]string{"topicId": topic.ID})
	u.persistLocked()
}

// Vote casts one vote for the acting participant during the voting phase.
// The ledger and the topic's aggregate count move together. The returned
// counts feed the private "your votes" reply; accepted is false when the
// budget is exhausted or the command referenced nothing.
func (u *Usecase) Vote(meetingID, participantID, topicID string) (counts map[string]int, max int, accepted bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || m.Phase != model.PhaseVoting {
		return nil, 0, false
	}
	topic := m.FindTopic(topicID)
	if topic == nil || participantID == "" {
		return nil, 0, false
	}

	if !usecase_vote.Cast(m.Votes, participantID, topicID, m.MaxVotes) {
		return nil, 0, false
	}
	topic.Votes++
	if topic.Voters == nil {
		topic.Voters = make(map[string]int)
	}
	topic.Voters[participantID]++

	u.broadcastStateLocked(m)
	u.persistLocked()
	return usecase_vote.TopicCounts(m.Votes[participantID]), m.MaxVotes, true
}

// Unvote retracts one vote. Unlike Vote it is not phase-gated, so votes can
// be withdrawn after voting closed.
func (u *Usecase) Unvote(meetingID, participantID, topicID string) (counts map[string]int, max int, accepted bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok {
		return nil, 0, false
	}
	topic := m.FindTopic(topicID)
	if topic == nil || participantID == "" {
		return nil, 0, false
	}

	if !usecase_vote.Retract(m.Votes, participantID, topicID) {
		return nil, 0, false
	}
	if topic.Votes > 0 {
		topic.Votes--
	}
	if topic.Voters != nil {
		if topic.Voters[participantID] <= 1 {
			delete(topic.Voters, participantID)
		} else {
			topic.Voters[participantID]--
		}
	}

	u.broadcastStateLocked(m)
	u.persistLocked()
	return usecase_vote.TopicCounts(m.Votes[participantID]), m.MaxVotes, true
}

// MoveTopic relocates a topic across board columns. Moving into "doing"
// makes it the current topic; moving the current topic elsewhere clears it.
func (u *Usecase) MoveTopic(meetingID, topicID string, column model.Column, adminToken string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) || !column.Valid() {
		return
	}
	topic := m.FindTopic(topicID)
	if topic == nil {
		return
	}

	topic.Column = column
	if column == model.ColumnDoing {
		m.CurrentTopicID = topic.ID
	} else if m.CurrentTopicID == topic.ID {
		m.CurrentTopicID = ""
	}

	u.broadcastStateLocked(m)
	u.persistLocked()
}

// DeleteTopic removes a topic and cascades into the ledger: every
// participant's votes on it are purged so totals stay consistent.
func (u *Usecase) DeleteTopic(meetingID, topicID, adminToken string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) {
		return
	}

	kept := m.Topics[:0]
	for _, t := range m.Topics {
		if t.ID != topicID {
			kept = append(kept, t)
		}
	}
	m.Topics = kept

	usecase_vote.PurgeTopic(m.Votes, topicID)
	if m.CurrentTopicID == topicID {
		m.CurrentTopicID = ""
	}

	u.broadcastStateLocked(m)
	u.persistLocked()
}

// SetDurations updates per-phase lengths in minutes; nil fields are left
// untouched, supplied ones clamped to the valid range.
func (u *Usecase) SetDurations(meetingID, adminToken string, create, voting, discuss *int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) {
		return
	}

	m.Durations.Create = usecase_phase.ClampMinutes(create, m.Durations.Create)
	m.Durations.Voting = usecase_phase.ClampMinutes(voting, m.Durations.Voting)
	m.Durations.Discuss = usecase_phase.ClampMinutes(discuss, m.Durations.Discuss)

	u.broadcastStateLocked(m)
	u.persistLocked()
}

// SetVoteLimit updates the per-participant vote budget, clamped to 1-10.
func (u *Usecase) SetVoteLimit(meetingID, adminToken string, maxVotes *int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.lookupLocked(meetingID)
	if !ok || !u.authorized(m, adminToken) || maxVotes == nil {
		return
	}

	m.MaxVotes = usecase_phase.ClampVoteLimit(*maxVotes)

	u.broadcastStateLocked(m)
	u.persistLocked()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
