package model

// Topic is one discussion item on the board. Voters mirrors the ledger for
// the topic's own votes; it is transient and rebuilt empty after a restore,
// the ledger stays authoritative.
type Topic struct {
	ID        string
	Title     string
	AuthorID  string
	Votes     int
	Voters    map[string]int
	Column    Column
	CreatedAt int64
}

// Meeting is one Lean Coffee session. Timestamps and deadlines are unix
// milliseconds; PhaseEndsAt is set only while running, PhaseRemainingMs only
// while paused.
type Meeting struct {
	ID               string
	AdminToken       string
	Topics           []*Topic
	Participants     map[string]struct{}
	Votes            VoteLedger
	Durations        Durations
	MaxVotes         int
	Phase            Phase
	PhaseEndsAt      int64
	PhasePaused      bool
	PhaseRemainingMs int64
	CurrentTopicID   string
	CreatedAt        int64
}

func (m *Meeting) FindTopic(topicID string) *Topic {
	for _, t := range m.Topics {
		if t.ID == topicID {
			return t
		}
	}
	return nil
}
