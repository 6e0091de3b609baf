package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shenikar/saferoute/internal/config"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sosTimeout     = 10 * time.Second
)

// IdentityResolver сопоставляет bearer-токен с личностью пользователя
type IdentityResolver interface {
	Resolve(token string) (models.Identity, error)
}

// PresenceRegistry - операции Presence Tracker, которые вызывает транспорт
type PresenceRegistry interface {
	Connect(connectionID string, userID uuid.UUID)
	UpdateLocation(connectionID string, lat, lon float64) bool
	Disconnect(connectionID string)
}

type Handler struct {
	hub      *Hub
	presence PresenceRegistry
	alerts   service.AlertService
	resolver IdentityResolver
	logger   *logrus.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
	sosEvery rate.Limit
	sosBurst int
}

func NewHandler(
	hub *Hub,
	presence PresenceRegistry,
	alerts service.AlertService,
	resolver IdentityResolver,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	sosEvery := rate.Inf
	if cfg.SOSRateLimit > 0 {
		sosEvery = rate.Every(cfg.SOSRateLimit)
	}
	burst := cfg.SOSRateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Handler{
		hub:      hub,
		presence: presence,
		alerts:   alerts,
		resolver: resolver,
		logger:   logger,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.CORSOrigins),
		},
		sosEvery: sosEvery,
		sosBurst: burst,
	}
}

// originChecker пропускает клиентов без Origin (мобильные) и источники из CORS_ORIGINS
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

func tokenFrom(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// conn - состояние одного соединения
type conn struct {
	ws       *websocket.Conn
	client   *client
	identity models.Identity
	limiter  *rate.Limiter
	log      *logrus.Entry
}

// @Summary Realtime channel
// @Description WebSocket upgrade. Inbound events: update_location{lat, lon}, trigger_sos{lat, lon, timestamp}. Outbound events: alert{lat, lon, timestamp, user_id}, error{message}.
// @Tags Realtime
// @Param token query string false "Bearer token (alternative to the Authorization header)"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /ws [get]
func (h *Handler) Serve(c *gin.Context) {
	log := h.logger.WithField("method", "ws.Serve")

	identity, err := h.resolver.Resolve(tokenFrom(c.Request))
	if err != nil {
		log.WithError(err).Warn("Rejected unauthenticated websocket connection")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade websocket")
		return
	}

	connectionID := uuid.NewString()
	cn := &conn{
		ws:       wsConn,
		client:   newClient(connectionID),
		identity: identity,
		limiter:  rate.NewLimiter(h.sosEvery, h.sosBurst),
		log: log.WithFields(logrus.Fields{
			"connection_id": connectionID,
			"user_id":       identity.UserID,
		}),
	}

	h.hub.register(cn.client)
	h.presence.Connect(connectionID, identity.UserID)
	cn.log.Info("Websocket client connected")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(cn)
	}()

	h.readPump(c.Request.Context(), cn)

	h.presence.Disconnect(connectionID)
	h.hub.unregister(connectionID)
	<-writerDone
	_ = wsConn.Close()
	cn.log.Info("Websocket client disconnected")
}

// readPump читает кадры до ошибки чтения или закрытия соединения
func (h *Handler) readPump(ctx context.Context, cn *conn) {
	cn.ws.SetReadLimit(maxMessageSize)
	_ = cn.ws.SetReadDeadline(time.Now().Add(pongWait))
	cn.ws.SetPongHandler(func(string) error {
		return cn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := cn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cn.log.WithError(err).Warn("Unexpected websocket close")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendError(cn, "malformed message")
			continue
		}

		switch msg.Event {
		case EventUpdateLocation:
			h.handleUpdateLocation(cn, msg.Data)
		case EventTriggerSOS:
			h.handleTriggerSOS(ctx, cn, msg.Data)
		default:
			h.sendError(cn, "unknown event "+msg.Event)
		}
	}
}

// writePump - единственный писатель в соединение
func (h *Handler) writePump(cn *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-cn.client.send:
			_ = cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cn.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				cn.log.WithError(err).Warn("Failed to write websocket message")
				_ = cn.ws.Close()
				return
			}
		case <-ticker.C:
			_ = cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = cn.ws.Close()
				return
			}
		case <-cn.client.done:
			_ = cn.ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			// readPump завершится ошибкой чтения, и Serve уберет присутствие
			_ = cn.ws.Close()
			return
		}
	}
}

func (h *Handler) handleUpdateLocation(cn *conn, data json.RawMessage) {
	var payload locationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(cn, "invalid update_location payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.sendError(cn, "update_location requires valid lat and lon")
		return
	}
	h.presence.UpdateLocation(cn.client.id, *payload.Latitude, *payload.Longitude)
}

func (h *Handler) handleTriggerSOS(ctx context.Context, cn *conn, data json.RawMessage) {
	var payload sosPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		h.sendError(cn, "invalid trigger_sos payload")
		return
	}

	throttled := !cn.limiter.Allow()
	if throttled {
		cn.log.Warn("SOS rate limit exceeded")
	}

	ctx, cancel := context.WithTimeout(ctx, sosTimeout)
	defer cancel()

	_, err := h.alerts.TriggerAlert(ctx, models.SOSTrigger{
		ConnectionID: cn.client.id,
		UserID:       cn.identity.UserID,
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		Timestamp:    payload.Timestamp.Time,
		Throttled:    throttled,
	})
	if err == nil && throttled {
		h.sendError(cn, "too many SOS requests, alert saved but not broadcast")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			h.sendError(cn, "trigger_sos requires valid lat and lon")
		case errors.Is(err, service.ErrUnauthorized):
			h.sendError(cn, "unauthorized")
		default:
			cn.log.WithError(err).Error("Failed to trigger SOS")
			h.sendError(cn, "failed to trigger SOS")
		}
	}
}

func (h *Handler) sendError(cn *conn, message string) {
	if err := h.hub.send(cn.client.id, EventError, errorPayload{Message: message}); err != nil {
		cn.log.WithError(err).Debug("Dropped error event")
	}
}
