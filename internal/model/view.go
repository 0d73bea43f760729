package model

// TopicView omits authorship and voter identities from the broadcast board.
type TopicView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Votes     int    `json:"votes"`
	Column    Column `json:"column"`
	CreatedAt int64  `json:"createdAt"`
}

type ViewTotals struct {
	Participants int `json:"participants"`
	VotesCast    int `json:"votesCast"`
}

type ViewConfig struct {
	MaxVotesPerParticipant int `json:"maxVotesPerParticipant"`
}

// ClientView is the privacy-filtered projection of a Meeting sent to clients.
// It never carries the admin token or raw per-participant ledgers. Now is the
// server clock so clients can reconcile countdowns against their own.
type ClientView struct {
	ID               string      `json:"id"`
	Topics           []TopicView `json:"topics"`
	Totals           ViewTotals  `json:"totals"`
	Config           ViewConfig  `json:"config"`
	Phase            Phase       `json:"phase"`
	PhaseEndsAt      *int64      `json:"phaseEndsAt"`
	PhasePaused      bool        `json:"phasePaused"`
	PhaseRemainingMs *int64      `json:"phaseRemainingMs"`
	Now              int64       `json:"now"`
	Durations        Durations   `json:"durations"`
	CurrentTopicID   string      `json:"currentTopicId,omitempty"`
}
