package infra_statefile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leancoffee/core/internal/model"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "data", "state.json"))
}

func TestLoadMissingFile(t *testing.T) {
	meetings, err := tempStore(t).Load()
	assert.NoError(t, err, "a fresh install has no state file")
	assert.Empty(t, meetings)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := New(path).Load()
	assert.Error(t, err)
}

func TestSaveCreatesDirectoryAndRoundTrips(t *testing.T) {
	store := tempStore(t)
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC).UnixMilli()

	meeting := &model.Meeting{
		ID:         "RETRO1",
		AdminToken: "SECRETTOKEN1",
		Topics: []*model.Topic{
			{ID: "topicaaaaa", Title: "first", Votes: 3, Voters: map[string]int{"p1": 2, "p2": 1}, Column: model.ColumnDoing, CreatedAt: now},
			{ID: "topicbbbbb", Title: "second", Column: model.ColumnTodo, CreatedAt: now},
		},
		Participants: map[string]struct{}{"p1": {}, "p2": {}},
		Votes: model.VoteLedger{
			"p1": {Total: 2, Topics: map[string]int{"topicaaaaa": 2}},
			"p2": {Total: 1, Topics: map[string]int{"topicaaaaa": 1}},
		},
		Durations:      model.Durations{Create: 5, Voting: 3, Discuss: 5},
		MaxVotes:       3,
		Phase:          model.PhaseVoting,
		PhaseEndsAt:    now + 90_000,
		CurrentTopicID: "topicaaaaa",
		CreatedAt:      now,
	}

	require.NoError(t, store.Save([]*model.Meeting{meeting}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, "RETRO1", got.ID)
	assert.Equal(t, "SECRETTOKEN1", got.AdminToken)
	assert.Equal(t, meeting.Durations, got.Durations)
	assert.Equal(t, model.PhaseVoting, got.Phase)
	assert.Equal(t, meeting.PhaseEndsAt, got.PhaseEndsAt)
	assert.Equal(t, "topicaaaaa", got.CurrentTopicID)
	assert.Len(t, got.Participants, 2)

	require.Len(t, got.Topics, 2)
	assert.Equal(t, 3, got.Topics[0].Votes)
	assert.Empty(t, got.Topics[0].Voters, "voter maps are transient and not persisted")

	require.NotNil(t, got.Votes["p1"])
	assert.Equal(t, 2, got.Votes["p1"].Total)
	assert.Equal(t, map[string]int{"topicaaaaa": 2}, got.Votes["p1"].Topics)
}

func TestSavePausedRemainingRoundTrips(t *testing.T) {
	store := tempStore(t)

	meeting := &model.Meeting{
		ID:          "PAUSED1",
		AdminToken:  "TOKEN",
		Phase:       model.PhaseDiscuss,
		PhasePaused: true,
		// Zero remaining is meaningful: it distinguishes "expired" from
		// "admin paused mid-phase".
		PhaseRemainingMs: 0,
	}

	require.NoError(t, store.Save([]*model.Meeting{meeting}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].PhasePaused)
	assert.Zero(t, loaded[0].PhaseRemainingMs)
}

// Documents written by earlier schema versions stored the ledger as an array
// of [participantId, value] pairs, with values in several shapes. All of them
// must come back canonical.
func TestLoadLegacyDocument(t *testing.T) {
	legacy := `{
		"OLD001": {
			"id": "OLD001",
			"adminToken": "LEGACYTOKEN1",
			"topics": [
				{"id": "tpcaaaaaaa", "title": "carried over", "votes": 4, "column": "todo", "createdAt": 1700000000000}
			],
			"participants": ["p1", "p2", "p3", "p4"],
			"votesByParticipant": [
				["p1", ["tpcaaaaaaa", "tpcaaaaaaa"]],
				["p2", {"topics": [["tpcaaaaaaa", 1]]}],
				["p3", {"tpcaaaaaaa": 1}],
				["p4", {"total": 0, "topics": {}}]
			],
			"durations": {"create": 5, "voting": 3, "discuss": 5},
			"phase": "voting",
			"phaseEndsAt": 1700000180000,
			"phasePaused": false,
			"phaseRemainingMs": null,
			"currentTopicId": null,
			"createdAt": 1699999000000,
			"maxVotesPerParticipant": 3
		}
	}`

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	loaded, err := New(path).Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	m := loaded[0]
	assert.Equal(t, "OLD001", m.ID)
	assert.Equal(t, model.PhaseVoting, m.Phase)
	assert.Len(t, m.Participants, 4)

	require.NotNil(t, m.Votes["p1"])
	assert.Equal(t, 2, m.Votes["p1"].Total, "id-array encoding counts one vote per element")
	require.NotNil(t, m.Votes["p2"])
	assert.Equal(t, 1, m.Votes["p2"].Total, "pair encoding recomputes the missing total")
	require.NotNil(t, m.Votes["p3"])
	assert.Equal(t, map[string]int{"tpcaaaaaaa": 1}, m.Votes["p3"].Topics)
	_, exists := m.Votes["p4"]
	assert.False(t, exists, "zero records normalize to absence")
}

func TestSaveOverwritesWholesale(t *testing.T) {
	store := tempStore(t)

	first := &model.Meeting{ID: "FIRST1", AdminToken: "T1"}
	second := &model.Meeting{ID: "SECOND", AdminToken: "T2"}

	require.NoError(t, store.Save([]*model.Meeting{first, second}))
	require.NoError(t, store.Save([]*model.Meeting{second}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "SECOND", loaded[0].ID)
}
