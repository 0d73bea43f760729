package ws_meeting

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"leancoffee/core/internal/model"
	usecase_meeting "leancoffee/core/internal/usecase/meeting"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Controller upgrades connections and dispatches client commands, one
// handler per command type. Commands address meetings by code; authorization
// and validation live in the engine, so a bad command simply produces no
// broadcast.
type Controller struct {
	hub *Hub
	uc  *usecase_meeting.Usecase

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(hub *Hub, uc *usecase_meeting.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		hub:    hub,
		uc:     uc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.serve)
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	MeetingID  string `json:"meetingId"`
	Role       string `json:"role"`
	ID         string `json:"id"`
	AdminToken string `json:"adminToken"`
}

type topicPayload struct {
	MeetingID string `json:"meetingId"`
	Title     string `json:"title"`
	AuthorID  string `json:"authorId"`
}

type votePayload struct {
	MeetingID     string `json:"meetingId"`
	ParticipantID string `json:"participantId"`
	TopicID       string `json:"topicId"`
}

type movePayload struct {
	MeetingID  string `json:"meetingId"`
	TopicID    string `json:"topicId"`
	Column     string `json:"column"`
	AdminToken string `json:"adminToken"`
}

type deletePayload struct {
	MeetingID  string `json:"meetingId"`
	TopicID    string `json:"topicId"`
	AdminToken string `json:"adminToken"`
}

type durationsPayload struct {
	MeetingID  string `json:"meetingId"`
	AdminToken string `json:"adminToken"`
	Create     *int   `json:"create"`
	Voting     *int   `json:"voting"`
	Discuss    *int   `json:"discuss"`
}

type voteLimitPayload struct {
	MeetingID  string `json:"meetingId"`
	AdminToken string `json:"adminToken"`
	MaxVotes   *int   `json:"maxVotes"`
}

type startPhasePayload struct {
	MeetingID  string `json:"meetingId"`
	AdminToken string `json:"adminToken"`
	Phase      string `json:"phase"`
	Minutes    *int   `json:"minutes"`
	TopicID    string `json:"topicId"`
}

type adminPayload struct {
	MeetingID  string `json:"meetingId"`
	AdminToken string `json:"adminToken"`
}

type yourVotesPayload struct {
	TopicCounts map[string]int `json:"topicCounts"`
	Max         int            `json:"max"`
}

func (c *Controller) serve(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan Event, 16),
		id:   uuid.NewString(),
	}
	go c.hub.startWriting(client)

	defer func() {
		if client.meetingID != "" {
			c.hub.Remove(client)
		} else {
			close(client.send)
		}
		conn.Close()
	}()

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		c.dispatch(client, ctx.Request, env)
	}
}

func (c *Controller) dispatch(client *Client, req *http.Request, env envelope) {
	switch env.Type {
	case "join":
		var p joinPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.handleJoin(client, req, p)

	case "submit_topic":
		var p topicPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.SubmitTopic(p.MeetingID, p.Title, p.AuthorID)

	case "vote":
		var p votePayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		pid := c.actingParticipant(client, p.MeetingID, p.ParticipantID)
		if counts, max, ok := c.uc.Vote(p.MeetingID, pid, p.TopicID); ok {
			c.hub.Send(client, Event{Type: usecase_meeting.EventYourVotes, Payload: yourVotesPayload{TopicCounts: counts, Max: max}})
		}

	case "unvote":
		var p votePayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		pid := c.actingParticipant(client, p.MeetingID, p.ParticipantID)
		if counts, max, ok := c.uc.Unvote(p.MeetingID, pid, p.TopicID); ok {
			c.hub.Send(client, Event{Type: usecase_meeting.EventYourVotes, Payload: yourVotesPayload{TopicCounts: counts, Max: max}})
		}

	case "move_topic":
		var p movePayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.MoveTopic(p.MeetingID, p.TopicID, model.Column(p.Column), p.AdminToken)

	case "delete_topic":
		var p deletePayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.DeleteTopic(p.MeetingID, p.TopicID, p.AdminToken)

	case "set_durations":
		var p durationsPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.SetDurations(p.MeetingID, p.AdminToken, p.Create, p.Voting, p.Discuss)

	case "set_vote_limit":
		var p voteLimitPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.SetVoteLimit(p.MeetingID, p.AdminToken, p.MaxVotes)

	case "start_phase":
		var p startPhasePayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.StartPhase(p.MeetingID, p.AdminToken, model.Phase(p.Phase), p.Minutes, p.TopicID)

	case "add_minute":
		var p adminPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.AddMinute(p.MeetingID, p.AdminToken)

	case "end_phase":
		var p adminPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.EndPhase(p.MeetingID, p.AdminToken)

	case "pause_phase":
		var p adminPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.PausePhase(p.MeetingID, p.AdminToken)

	case "resume_phase":
		var p adminPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return
		}
		c.uc.ResumePhase(p.MeetingID, p.AdminToken)
	}
}

func (c *Controller) handleJoin(client *Client, req *http.Request, p joinPayload) {
	meetingID := strings.ToUpper(strings.TrimSpace(p.MeetingID))

	// Prefer the server-issued per-meeting cookie for participant identity.
	cookiePID := ""
	if cookie, err := req.Cookie("clid_" + meetingID); err == nil {
		cookiePID = cookie.Value
	}

	participantID := p.ID
	if p.Role == "participant" && cookiePID != "" {
		participantID = cookiePID
	}
	if participantID == "" {
		participantID = client.id
	}

	view, counts, max, err := c.uc.Join(meetingID, participantID)
	if err != nil {
		c.hub.Send(client, Event{Type: usecase_meeting.EventError, Payload: "Meeting not found"})
		return
	}

	if client.meetingID != "" && client.meetingID != view.ID {
		c.hub.Detach(client)
	}
	client.meetingID = view.ID
	client.participantID = participantID
	client.role = p.Role
	c.hub.Register(client)

	c.hub.Send(client, Event{Type: usecase_meeting.EventState, Payload: view})
	if p.Role == "participant" {
		c.hub.Send(client, Event{Type: usecase_meeting.EventYourVotes, Payload: yourVotesPayload{TopicCounts: counts, Max: max}})
	}
}

// actingParticipant trusts the identity established at join over whatever id
// the payload claims.
func (c *Controller) actingParticipant(client *Client, meetingID, claimed string) string {
	if client.participantID != "" && client.meetingID == strings.ToUpper(strings.TrimSpace(meetingID)) {
		return client.participantID
	}
	return claimed
}
