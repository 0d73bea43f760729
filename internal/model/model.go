package model

type Column string

const (
	ColumnTodo  Column = "todo"
	ColumnDoing Column = "doing"
	ColumnDone  Column = "done"
)

func (c Column) Valid() bool {
	switch c {
	case ColumnTodo, ColumnDoing, ColumnDone:
		return true
	}
	return false
}

// Phase is the session stage. The empty value means no phase is active.
type Phase string

const (
	PhaseNone    Phase = ""
	PhaseCreate  Phase = "create"
	PhaseVoting  Phase = "voting"
	PhaseDiscuss Phase = "discuss"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseCreate, PhaseVoting, PhaseDiscuss:
		return true
	}
	return false
}

// Durations are per-phase lengths in minutes.
type Durations struct {
	Create  int `json:"create"`
	Voting  int `json:"voting"`
	Discuss int `json:"discuss"`
}
