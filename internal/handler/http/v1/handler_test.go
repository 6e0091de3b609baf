package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/config"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service"
	"github.com/shenikar/saferoute/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	studentIdentity = models.Identity{UserID: uuid.New(), Role: models.RoleStudent}
	adminIdentity   = models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	studentAuth = map[string]string{"Authorization": "Bearer student-token"}
	adminAuth   = map[string]string{"Authorization": "Bearer admin-token"}
)

// staticResolver сопоставляет фиксированные токены с личностями
type staticResolver map[string]models.Identity

func (r staticResolver) Resolve(token string) (models.Identity, error) {
	identity, ok := r[token]
	if !ok {
		return models.Identity{}, service.ErrUnauthorized
	}
	return identity, nil
}

type testMocks struct {
	incidents *mocks.MockIncidentService
	votes     *mocks.MockVoteService
	users     *mocks.MockUserService
}

// newTestHandler создает новый экземпляр Handler с мокированными сервисами
func newTestHandler(t *testing.T) (testMocks, *gin.Engine) {
	ctrl := gomock.NewController(t)
	m := testMocks{
		incidents: mocks.NewMockIncidentService(ctrl),
		votes:     mocks.NewMockVoteService(ctrl),
		users:     mocks.NewMockUserService(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	resolver := staticResolver{
		"student-token": studentIdentity,
		"admin-token":   adminIdentity,
	}
	handler := NewHandler(m.incidents, m.votes, m.users, resolver, logger, &config.Config{})

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return m, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestCreateIncident_Success(t *testing.T) {
	// Подготовка
	m, router := newTestHandler(t)
	incidentID := uuid.New()
	expiresAt := time.Now().Add(2 * time.Hour)

	// Ожидания
	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) error {
			assert.Equal(t, studentIdentity.UserID, inc.OwnerID)
			assert.Equal(t, models.CategoryDog, inc.Category)
			inc.ID = incidentID
			inc.Status = models.StatusActive
			inc.ExpiresAt = &expiresAt
			return nil
		}).Times(1)

	// Действие
	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", jsonBody(t, map[string]any{
		"category":    "dog",
		"description": "Stray dogs near the dorm",
		"latitude":    43.238,
		"longitude":   76.889,
	}), studentAuth)

	// Проверки
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, incidentID, resp.ID)
	assert.Equal(t, "active", resp.Status)
	require.NotNil(t, resp.ExpiresAt)
}

func TestCreateIncident_ZeroCoordinatesAccepted(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", jsonBody(t, map[string]any{
		"category":  "other",
		"latitude":  0,
		"longitude": 0,
	}), studentAuth)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateIncident_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing latitude", map[string]any{"category": "dog", "longitude": 10}},
		{"unknown category", map[string]any{"category": "noise", "latitude": 10, "longitude": 10}},
		{"latitude out of range", map[string]any{"category": "dog", "latitude": 91, "longitude": 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, router := newTestHandler(t)
			m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

			w := makeRequest(router, http.MethodPost, "/api/v1/incidents", jsonBody(t, tt.body), studentAuth)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(`{"category": "dog"`), studentAuth)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_Forbidden(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("service: user cannot create incidents: %w", service.ErrForbidden)).
		Times(1)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", jsonBody(t, map[string]any{
		"category": "crime", "latitude": 1, "longitude": 1,
	}), studentAuth)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuth_MissingOrInvalidToken(t *testing.T) {
	m, router := newTestHandler(t)
	m.incidents.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0)

	url := fmt.Sprintf("/api/v1/incidents/%s", uuid.New())

	w := makeRequest(router, http.MethodGet, url, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = makeRequest(router, http.MethodGet, url, nil, map[string]string{"Authorization": "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQueryIncidents_Defaults(t *testing.T) {
	// Подготовка
	m, router := newTestHandler(t)
	found := []*models.Incident{{ID: uuid.New(), Status: models.StatusActive}}

	// Ожидания: радиус не задан, сервис подставит значение по умолчанию
	m.incidents.EXPECT().
		QueryIncidents(gomock.Any(), models.IncidentQuery{Latitude: 43.2, Longitude: 76.9, OrderByDistance: true}).
		Return(found, nil).
		Times(1)

	// Действие
	w := makeRequest(router, http.MethodGet, "/api/v1/incidents?lat=43.2&lon=76.9&order=distance", nil, studentAuth)

	// Проверки
	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, found[0].ID, resp[0].ID)
}

func TestQueryIncidents_WithRadius(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().
		QueryIncidents(gomock.Any(), models.IncidentQuery{Latitude: 0, Longitude: 0, RadiusMeters: 250}).
		Return([]*models.Incident{}, nil).
		Times(1)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents?lat=0&lon=0&radius=250", nil, studentAuth)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestQueryIncidents_BadQuery(t *testing.T) {
	m, router := newTestHandler(t)
	m.incidents.EXPECT().QueryIncidents(gomock.Any(), gomock.Any()).Times(0)

	for _, q := range []string{"lon=76.9", "lat=abc&lon=1", "lat=1&lon=1&radius=-5", "lat=1&lon=1&order=random"} {
		w := makeRequest(router, http.MethodGet, "/api/v1/incidents?"+q, nil, studentAuth)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetIncident_InvalidID(t *testing.T) {
	m, router := newTestHandler(t)

	m.incidents.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/invalid-uuid", nil, studentAuth)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid incident ID")
}

func TestGetIncident_NotFound(t *testing.T) {
	m, router := newTestHandler(t)
	incidentID := uuid.New()

	m.incidents.EXPECT().
		GetIncident(gomock.Any(), incidentID).
		Return(nil, fmt.Errorf("service: could not get incident: %w", service.ErrIncidentNotFound)).
		Times(1)

	w := makeRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil, studentAuth)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestGetIncident_ServiceError(t *testing.T) {
	m, router := newTestHandler(t)
	incidentID := uuid.New()

	m.incidents.EXPECT().GetIncident(gomock.Any(), incidentID).Return(nil, errors.New("connection refused")).Times(1)

	w := makeRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/incidents/%s", incidentID), nil, studentAuth)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestVoteIncident_Success(t *testing.T) {
	m, router := newTestHandler(t)
	incidentID := uuid.New()

	m.votes.EXPECT().
		SubmitVote(gomock.Any(), studentIdentity.UserID, incidentID, models.VoteDown).
		Return(&models.VoteResult{IncidentID: incidentID, State: models.VoteStateDownvoted, Downvotes: 1}, nil).
		Times(1)

	w := makeRequest(router, http.MethodPost, fmt.Sprintf("/api/v1/incidents/%s/vote", incidentID),
		jsonBody(t, VoteRequest{Kind: "downvote"}), studentAuth)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp VoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "downvoted", resp.State)
	assert.Equal(t, 1, resp.Downvotes)
}

func TestVoteIncident_Errors(t *testing.T) {
	m, router := newTestHandler(t)
	incidentID := uuid.New()
	url := fmt.Sprintf("/api/v1/incidents/%s/vote", incidentID)

	w := makeRequest(router, http.MethodPost, url, jsonBody(t, VoteRequest{Kind: "meh"}), studentAuth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.votes.EXPECT().
		SubmitVote(gomock.Any(), gomock.Any(), incidentID, models.VoteUp).
		Return(nil, service.ErrIncidentNotFound).
		Times(1)

	w = makeRequest(router, http.MethodPost, url, jsonBody(t, VoteRequest{Kind: "upvote"}), studentAuth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateIncidentStatus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"ok", nil, http.StatusOK},
		{"not admin", service.ErrForbidden, http.StatusForbidden},
		{"disallowed transition", service.ErrInvalidTransition, http.StatusConflict},
		{"missing incident", service.ErrIncidentNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, router := newTestHandler(t)
			incidentID := uuid.New()

			var incident *models.Incident
			if tt.err == nil {
				incident = &models.Incident{ID: incidentID, Status: models.StatusResolved}
			}
			m.incidents.EXPECT().
				SetIncidentStatus(gomock.Any(), adminIdentity, incidentID, models.StatusResolved).
				Return(incident, tt.err).
				Times(1)

			w := makeRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/admin/incidents/%s/status", incidentID),
				jsonBody(t, UpdateStatusRequest{Status: "resolved"}), adminAuth)

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestValidateIncident_Success(t *testing.T) {
	m, router := newTestHandler(t)
	incidentID := uuid.New()

	m.incidents.EXPECT().
		ValidateIncident(gomock.Any(), adminIdentity, incidentID).
		Return(&models.Incident{ID: incidentID, Status: models.StatusActive}, nil).
		Times(1)

	w := makeRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/admin/incidents/%s/validate", incidentID), nil, adminAuth)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"active"`)
}

func TestBlockUser(t *testing.T) {
	m, router := newTestHandler(t)
	target := uuid.New()

	m.users.EXPECT().SetBlocked(gomock.Any(), adminIdentity, target, true).Return(nil).Times(1)
	m.users.EXPECT().
		SetBlocked(gomock.Any(), adminIdentity, adminIdentity.UserID, true).
		Return(service.ErrInvalidInput).
		Times(1)

	w := makeRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%s/block", target),
		bytes.NewBufferString(`{"blocked": true}`), adminAuth)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = makeRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%s/block", adminIdentity.UserID),
		bytes.NewBufferString(`{"blocked": true}`), adminAuth)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// поле blocked обязательно
	w = makeRequest(router, http.MethodPut, fmt.Sprintf("/api/v1/admin/users/%s/block", target),
		bytes.NewBufferString(`{}`), adminAuth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMe(t *testing.T) {
	m, router := newTestHandler(t)

	m.users.EXPECT().
		GetUser(gomock.Any(), studentIdentity.UserID).
		Return(&models.User{ID: studentIdentity.UserID, Reputation: -2, Role: models.RoleStudent}, nil).
		Times(1)

	w := makeRequest(router, http.MethodGet, "/api/v1/users/me", nil, studentAuth)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, -2, resp.Reputation)
}

func TestHealthCheck(t *testing.T) {
	_, router := newTestHandler(t)

	w := makeRequest(router, http.MethodGet, "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
