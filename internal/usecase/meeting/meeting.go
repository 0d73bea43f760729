package usecase_meeting

import (
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"leancoffee/core/internal/model"
	usecase_phase "leancoffee/core/internal/usecase/phase"
	usecase_vote "leancoffee/core/internal/usecase/vote"
)

var (
	ErrInvalidCode      = errors.New("code must be 4-12 letters/numbers")
	ErrCodeConflict     = errors.New("meeting code already exists")
	ErrResourceNotFound = errors.New("no such resource")
	ErrCodesExhausted   = errors.New("no available meeting codes")
)

// Events emitted through the Broadcaster or privately by the transport.
const (
	EventState        = "state"
	EventYourVotes    = "your_votes"
	EventTopicAdded   = "topic_added"
	EventPhaseExpired = "phase_expired"
	EventError        = "error_msg"
)

const (
	meetingCodeAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	topicIDAlphabet     = "0123456789abcdefghijklmnopqrstuvwxyz"

	meetingCodeLen = 6
	adminTokenLen  = 12
	topicIDLen     = 10

	minMeetingCodeLen = 4
	maxMeetingCodeLen = 12

	maxTitleLen = 200
)

// Broadcaster delivers an event to every client in a meeting's room. The
// engine only calls into it, the transport owns delivery.
type Broadcaster interface {
	ToMeeting(meetingID string, event string, payload any)
}

// SnapshotRepository is the durable storage for the whole registry. Save
// overwrites the previous document wholesale.
type SnapshotRepository interface {
	Save(meetings []*model.Meeting) error
	Load() ([]*model.Meeting, error)
}

// ExpiryScheduler keeps at most one pending phase-expiry timer per meeting.
type ExpiryScheduler interface {
	Schedule(meetingID string, d time.Duration, fire func())
	Cancel(meetingID string)
}

// Defaults seed newly created meetings.
type Defaults struct {
	Durations model.Durations
	MaxVotes  int
}

// Usecase is the process-wide meeting registry and command engine. Every
// command runs end-to-end under one lock: ledger, topic counts and timer
// state are updated together before any broadcast or save.
type Usecase struct {
	mu       sync.Mutex
	meetings map[string]*model.Meeting

	repo        SnapshotRepository
	scheduler   ExpiryScheduler
	broadcaster Broadcaster
	defaults    Defaults

	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		u.now = now
	}
}

func New(repo SnapshotRepository, scheduler ExpiryScheduler, broadcaster Broadcaster, defaults Defaults, opts ...Option) *Usecase {
	u := &Usecase{
		meetings:    make(map[string]*model.Meeting),
		repo:        repo,
		scheduler:   scheduler,
		broadcaster: broadcaster,
		defaults:    defaults,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Create registers a new meeting. With an empty requestedCode a random code
// is generated; otherwise the code is normalized to uppercase alphanumerics
// and validated for length and uniqueness. The returned meeting carries the
// admin token; this is the only place it is revealed.
func (u *Usecase) Create(requestedCode string) (*model.Meeting, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	var code string
	if requestedCode != "" {
		code = normalizeCode(requestedCode)
		if len(code) < minMeetingCodeLen || len(code) > maxMeetingCodeLen {
			return nil, ErrInvalidCode
		}
		if _, exists := u.meetings[code]; exists {
			return nil, ErrCodeConflict
		}
	} else {
		// Random collisions are negligible at this alphabet and length,
		// retry a few times anyway.
		for retries := 3; ; retries-- {
			code = randomCode(meetingCodeAlphabet, meetingCodeLen)
			if _, exists := u.meetings[code]; !exists {
				break
			}
			if retries <= 0 {
				return nil, ErrCodesExhausted
			}
		}
	}

	m := &model.Meeting{
		ID:           code,
		AdminToken:   randomCode(meetingCodeAlphabet, adminTokenLen),
		Topics:       make([]*model.Topic, 0),
		Participants: make(map[string]struct{}),
		Votes:        make(model.VoteLedger),
		Durations:    u.defaults.Durations,
		MaxVotes:     u.defaults.MaxVotes,
		CreatedAt:    u.now().UnixMilli(),
	}
	u.meetings[code] = m
	u.persistLocked()

	u.logger.Info("meeting created", "meeting_id", code)
	return m, nil
}

// Join adds the participant to the meeting and returns the state snapshot
// plus the participant's own vote counts for the private reply. Joining is
// the one mutation that does not trigger a save; the next command carries the
// participant set along.
func (u *Usecase) Join(meetingID, participantID string) (model.ClientView, map[string]int, int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.meetings[normalizeLookup(meetingID)]
	if !ok {
		return model.ClientView{}, nil, 0, ErrResourceNotFound
	}
	if participantID != "" {
		m.Participants[participantID] = struct{}{}
	}
	return u.viewLocked(m), usecase_vote.TopicCounts(m.Votes[participantID]), m.MaxVotes, nil
}

// View returns the current snapshot without mutating anything.
func (u *Usecase) View(meetingID string) (model.ClientView, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	m, ok := u.meetings[normalizeLookup(meetingID)]
	if !ok {
		return model.ClientView{}, ErrResourceNotFound
	}
	return u.viewLocked(m), nil
}

// Exists reports whether a meeting code is registered.
func (u *Usecase) Exists(meetingID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	_, ok := u.meetings[normalizeLookup(meetingID)]
	return ok
}

// NewParticipantID mints an anonymous participant identity using the topic
// id alphabet so it cannot be mistaken for a meeting code.
func (u *Usecase) NewParticipantID() string {
	return randomCode(topicIDAlphabet, topicIDLen)
}

func (u *Usecase) authorized(m *model.Meeting, adminToken string) bool {
	return adminToken != "" && adminToken == m.AdminToken
}

func (u *Usecase) lookupLocked(meetingID string) (*model.Meeting, bool) {
	m, ok := u.meetings[normalizeLookup(meetingID)]
	return m, ok
}

// viewLocked projects a meeting into its privacy-preserving client snapshot.
func (u *Usecase) viewLocked(m *model.Meeting) model.ClientView {
	topics := make([]model.TopicView, 0, len(m.Topics))
	for _, t := range m.Topics {
		topics = append(topics, model.TopicView{
			ID:        t.ID,
			Title:     t.Title,
			Votes:     t.Votes,
			Column:    t.Column,
			CreatedAt: t.CreatedAt,
		})
	}

	view := model.ClientView{
		ID:     m.ID,
		Topics: topics,
		Totals: model.ViewTotals{
			Participants: len(m.Participants),
			VotesCast:    usecase_vote.TotalCast(m.Votes),
		},
		Config:         model.ViewConfig{MaxVotesPerParticipant: m.MaxVotes},
		Phase:          m.Phase,
		PhasePaused:    m.PhasePaused,
		Now:            u.now().UnixMilli(),
		Durations:      m.Durations,
		CurrentTopicID: m.CurrentTopicID,
	}
	if m.PhaseEndsAt != 0 {
		endsAt := m.PhaseEndsAt
		view.PhaseEndsAt = &endsAt
	}
	if m.PhasePaused {
		remaining := m.PhaseRemainingMs
		view.PhaseRemainingMs = &remaining
	}
	return view
}

func (u *Usecase) broadcastStateLocked(m *model.Meeting) {
	u.broadcaster.ToMeeting(m.ID, EventState, u.viewLocked(m))
}

// persistLocked snapshots the whole registry. Persistence is best-effort: a
// failed save is logged and never aborts the command that triggered it.
func (u *Usecase) persistLocked() {
	meetings := make([]*model.Meeting, 0, len(u.meetings))
	for _, m := range u.meetings {
		meetings = append(meetings, m)
	}
	if err := u.repo.Save(meetings); err != nil {
		u.logger.Error("persist failed", "error", err)
	}
}

func normalizeLookup(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// normalizeCode uppercases and strips anything outside A-Z0-9.
func normalizeCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func randomCode(alphabet string, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return b.String()
}

var _ ExpiryScheduler = (*usecase_phase.Scheduler)(nil)
