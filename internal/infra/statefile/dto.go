package infra_statefile

import (
	"bytes"
	"encoding/json"

	"leancoffee/core/internal/model"
	usecase_vote "leancoffee/core/internal/usecase/vote"
)

// document is the durable layout: one object keyed by meeting code.
type document map[string]meetingRecord

type topicRecord struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Votes     int          `json:"votes"`
	Column    model.Column `json:"column"`
	CreatedAt int64        `json:"createdAt"`
}

type meetingRecord struct {
	ID               string           `json:"id"`
	AdminToken       string           `json:"adminToken"`
	Topics           []topicRecord    `json:"topics"`
	Participants     []string         `json:"participants"`
	Votes            ledgerRecord     `json:"votesByParticipant"`
	Durations        model.Durations  `json:"durations"`
	Phase            model.Phase      `json:"phase,omitempty"`
	PhaseEndsAt      int64            `json:"phaseEndsAt,omitempty"`
	PhasePaused      bool             `json:"phasePaused,omitempty"`
	PhaseRemainingMs *int64           `json:"phaseRemainingMs,omitempty"`
	CurrentTopicID   string           `json:"currentTopicId,omitempty"`
	CreatedAt        int64            `json:"createdAt"`
	MaxVotes         int              `json:"maxVotesPerParticipant"`
}

// ledgerRecord carries per-participant vote values. Written canonically as an
// object of {total, topics} records; read tolerantly as either that object or
// the legacy array of [participantId, value] pairs, with each value left raw
// for shape-dispatched normalization.
type ledgerRecord map[string]json.RawMessage

func (l *ledgerRecord) UnmarshalJSON(data []byte) error {
	*l = make(ledgerRecord)

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '[' {
		var pairs [][]json.RawMessage
		if err := json.Unmarshal(data, &pairs); err != nil {
			return err
		}
		for _, pair := range pairs {
			if len(pair) < 2 {
				continue
			}
			var pid string
			if err := json.Unmarshal(pair[0], &pid); err != nil || pid == "" {
				continue
			}
			(*l)[pid] = pair[1]
		}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for pid, raw := range obj {
		(*l)[pid] = raw
	}
	return nil
}

func toRecord(m *model.Meeting) meetingRecord {
	topics := make([]topicRecord, 0, len(m.Topics))
	for _, t := range m.Topics {
		// Voter maps are transient and derivable from the ledger.
		topics = append(topics, topicRecord{
			ID:        t.ID,
			Title:     t.Title,
			Votes:     t.Votes,
			Column:    t.Column,
			CreatedAt: t.CreatedAt,
		})
	}

	participants := make([]string, 0, len(m.Participants))
	for pid := range m.Participants {
		participants = append(participants, pid)
	}

	ledger := make(ledgerRecord, len(m.Votes))
	for pid, rec := range m.Votes {
		if rec == nil || rec.Total == 0 {
			continue
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		ledger[pid] = raw
	}

	out := meetingRecord{
		ID:             m.ID,
		AdminToken:     m.AdminToken,
		Topics:         topics,
		Participants:   participants,
		Votes:          ledger,
		Durations:      m.Durations,
		Phase:          m.Phase,
		PhaseEndsAt:    m.PhaseEndsAt,
		PhasePaused:    m.PhasePaused,
		CurrentTopicID: m.CurrentTopicID,
		CreatedAt:      m.CreatedAt,
		MaxVotes:       m.MaxVotes,
	}
	if m.PhasePaused {
		remaining := m.PhaseRemainingMs
		out.PhaseRemainingMs = &remaining
	}
	return out
}

func (r meetingRecord) toModel() *model.Meeting {
	topics := make([]*model.Topic, 0, len(r.Topics))
	for _, t := range r.Topics {
		topics = append(topics, &model.Topic{
			ID:        t.ID,
			Title:     t.Title,
			Votes:     t.Votes,
			Voters:    make(map[string]int),
			Column:    t.Column,
			CreatedAt: t.CreatedAt,
		})
	}

	participants := make(map[string]struct{}, len(r.Participants))
	for _, pid := range r.Participants {
		participants[pid] = struct{}{}
	}

	ledger := make(model.VoteLedger, len(r.Votes))
	for pid, raw := range r.Votes {
		rec := usecase_vote.Normalize(raw)
		if rec.Total == 0 && len(rec.Topics) == 0 {
			continue
		}
		ledger[pid] = &rec
	}

	m := &model.Meeting{
		ID:             r.ID,
		AdminToken:     r.AdminToken,
		Topics:         topics,
		Participants:   participants,
		Votes:          ledger,
		Durations:      r.Durations,
		MaxVotes:       r.MaxVotes,
		Phase:          r.Phase,
		PhaseEndsAt:    r.PhaseEndsAt,
		PhasePaused:    r.PhasePaused,
		CurrentTopicID: r.CurrentTopicID,
		CreatedAt:      r.CreatedAt,
	}
	if r.PhaseRemainingMs != nil {
		m.PhaseRemainingMs = *r.PhaseRemainingMs
	}
	return m
}
