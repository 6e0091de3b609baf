package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/config"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService service.IncidentService
	voteService     service.VoteService
	userService     service.UserService
	resolver        IdentityResolver
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(
	incidentService service.IncidentService,
	voteService service.VoteService,
	userService service.UserService,
	resolver IdentityResolver,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		incidentService: incidentService,
		voteService:     voteService,
		userService:     userService,
		resolver:        resolver,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

// respondError сопоставляет типизированные ошибки сервиса с HTTP-статусами
func (h *Handler) respondError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, service.ErrIncidentNotFound):
		log.WithError(err).Warn("Incident not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
	case errors.Is(err, service.ErrNotFound):
		log.WithError(err).Warn("Referenced entity not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		log.WithError(err).Warn("Forbidden")
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidTransition):
		log.WithError(err).Warn("Invalid status transition")
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	case errors.Is(err, service.ErrInvalidInput):
		log.WithError(err).Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, service.ErrUnauthorized):
		log.WithError(err).Warn("Unauthorized")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		log.WithError(err).Error("Service call failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *Handler) parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON разбирает и валидирует тело запроса; при ошибке ответ уже отправлен
func (h *Handler) bindJSON(c *gin.Context, log *logrus.Entry, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// @Summary Report a new incident
// @Description Create an active incident at a point. TTL is derived from the category. Blocked users and users with negative reputation are rejected.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "User may not report incidents"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	identity := identityFrom(c)
	log := h.logger.WithField("method", "createIncident").WithField("user_id", identity.UserID)

	if !h.bindJSON(c, log, &input) {
		return
	}

	model := DTOToIncidentModel(input, identity)
	if err := h.incidentService.CreateIncident(c.Request.Context(), model); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(model))
}

// @Summary Find incidents nearby
// @Description Live incidents (active and not expired) within radius meters of a point.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius query number false "Radius in meters" default(1000)
// @Param order query string false "Sort order" Enums(recent, distance)
// @Success 200 {array} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [get]
func (h *Handler) queryIncidents(c *gin.Context) {
	var input QueryIncidentsRequest
	log := h.logger.WithField("method", "queryIncidents")

	if err := c.ShouldBindQuery(&input); err != nil {
		log.WithError(err).Warn("Failed to bind query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incidents, err := h.incidentService.QueryIncidents(c.Request.Context(), DTOToIncidentQuery(input))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentResponses(incidents))
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID.
// @Tags Incidents
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, ok := h.parseID(c, "incident")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Vote on an incident
// @Description Upvote or downvote. Repeating the same vote retracts it; the opposite vote replaces it. The owner's reputation moves with the counters.
// @Tags Votes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param vote body VoteRequest true "Vote"
// @Success 200 {object} VoteResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/vote [post]
func (h *Handler) voteIncident(c *gin.Context) {
	id, ok := h.parseID(c, "incident")
	if !ok {
		return
	}
	identity := identityFrom(c)
	log := h.logger.WithField("method", "voteIncident").WithField("id", id)

	var input VoteRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	result, err := h.voteService.SubmitVote(c.Request.Context(), identity.UserID, id, models.VoteKind(input.Kind))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToVoteResponse(result))
}

// @Summary Change incident status
// @Description Administrative transition: active -> resolved|fake, fake -> active.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Transition not allowed"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/incidents/{id}/status [put]
func (h *Handler) updateIncidentStatus(c *gin.Context) {
	id, ok := h.parseID(c, "incident")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "updateIncidentStatus").WithField("id", id)

	var input UpdateStatusRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	incident, err := h.incidentService.SetIncidentStatus(c.Request.Context(), identityFrom(c), id, models.IncidentStatus(input.Status))
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Revalidate an incident
// @Description Moves a fake incident back to active. An active incident is returned unchanged.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 409 {object} map[string]string "Incident is resolved"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/incidents/{id}/validate [put]
func (h *Handler) validateIncident(c *gin.Context) {
	id, ok := h.parseID(c, "incident")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "validateIncident").WithField("id", id)

	incident, err := h.incidentService.ValidateIncident(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Block or unblock a user
// @Description Blocked users cannot report incidents.
// @Tags Admin
// @Accept json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param block body BlockUserRequest true "Block flag"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Admin role required"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/users/{id}/block [put]
func (h *Handler) blockUser(c *gin.Context) {
	id, ok := h.parseID(c, "user")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "blockUser").WithField("id", id)

	var input BlockUserRequest
	if !h.bindJSON(c, log, &input) {
		return
	}

	if err := h.userService.SetBlocked(c.Request.Context(), identityFrom(c), id, *input.Blocked); err != nil {
		h.respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Current user
// @Description Reputation projection of the authenticated user.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users/me [get]
func (h *Handler) getMe(c *gin.Context) {
	identity := identityFrom(c)
	log := h.logger.WithField("method", "getMe").WithField("user_id", identity.UserID)

	user, err := h.userService.GetUser(c.Request.Context(), identity.UserID)
	if err != nil {
		h.respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToUserResponse(user))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
