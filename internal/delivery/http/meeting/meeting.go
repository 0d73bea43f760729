package http_meeting

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	usecase_meeting "leancoffee/core/internal/usecase/meeting"
)

// Controller serves meeting creation, the liveness probe and anonymous
// identity issuance. Everything else happens over the websocket.
type Controller struct {
	uc *usecase_meeting.Usecase

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_meeting.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:     uc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthz", c.healthz)
	router.GET("/join/:id", c.join)

	api := router.Group("/api")
	api.POST("/create", c.create)
	api.POST("/create-with-id", c.createWithID)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateRequestDTO struct {
	MeetingID string `json:"meetingId"`
}

type CreateResponseDTO struct {
	MeetingID  string `json:"meetingId"`
	AdminToken string `json:"adminToken"`
	BoardURL   string `json:"boardUrl"`
	JoinURL    string `json:"joinUrl"`
	AdminURL   string `json:"adminUrl"`
}

type JoinResponseDTO struct {
	MeetingID     string `json:"meetingId"`
	ParticipantID string `json:"participantId"`
}

func (c *Controller) healthz(ctx *gin.Context) {
	ctx.String(http.StatusOK, "ok")
}

func (c *Controller) create(ctx *gin.Context) {
	meeting, err := c.uc.Create("")
	if err != nil {
		c.logger.Error("meeting creation failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not create meeting"})
		return
	}
	ctx.JSON(http.StatusOK, createResponse(meeting.ID, meeting.AdminToken))
}

func (c *Controller) createWithID(ctx *gin.Context) {
	var req CreateRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	meeting, err := c.uc.Create(req.MeetingID)
	switch {
	case errors.Is(err, usecase_meeting.ErrInvalidCode):
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Error: "Code must be 4-12 letters/numbers"})
		return
	case errors.Is(err, usecase_meeting.ErrCodeConflict):
		ctx.JSON(http.StatusConflict, ErrorResponse{Error: "Meeting code already exists"})
		return
	case err != nil:
		c.logger.Error("meeting creation failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not create meeting"})
		return
	}
	ctx.JSON(http.StatusOK, createResponse(meeting.ID, meeting.AdminToken))
}

// join issues the per-meeting anonymous identity cookie when the browser has
// none yet. The websocket join command picks this cookie up later.
func (c *Controller) join(ctx *gin.Context) {
	meetingID := strings.ToUpper(ctx.Param("id"))
	if !c.uc.Exists(meetingID) {
		ctx.Redirect(http.StatusFound, "/?missing="+meetingID)
		return
	}

	cookieName := "clid_" + meetingID
	participantID, err := ctx.Cookie(cookieName)
	if err != nil || participantID == "" {
		participantID = c.uc.NewParticipantID()
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(cookieName, participantID, 365*24*3600, "/", "", false, false)
	}

	ctx.JSON(http.StatusOK, JoinResponseDTO{
		MeetingID:     meetingID,
		ParticipantID: participantID,
	})
}

func createResponse(meetingID, adminToken string) CreateResponseDTO {
	return CreateResponseDTO{
		MeetingID:  meetingID,
		AdminToken: adminToken,
		BoardURL:   "/board/" + meetingID,
		JoinURL:    "/join/" + meetingID,
		AdminURL:   "/admin/" + meetingID,
	}
}
