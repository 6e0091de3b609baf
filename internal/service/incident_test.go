package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/config"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service/mocks"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

// newTestIncidentService - вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (*incidentService, *mocks.MockIncidentRepository, *mocks.MockUserRepository) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockIncidentRepository(ctrl)
	usersMock := mocks.NewMockUserRepository(ctrl)

	cfg := &config.Config{
		DefaultQueryRadiusMeters: 1000,
	}

	service := NewIncidentService(repoMock, usersMock, newTestLogger(), cfg).(*incidentService)
	service.now = func() time.Time { return fixedNow }
	return service, repoMock, usersMock
}

func TestCreateIncident_TTLByCategory(t *testing.T) {
	tests := []struct {
		category models.Category
		ttl      time.Duration
	}{
		{models.CategoryDog, 2 * time.Hour},
		{models.CategoryLighting, 7 * 24 * time.Hour},
		{models.CategoryHarassment, 24 * time.Hour},
		{models.CategoryCrime, 30 * 24 * time.Hour},
		{models.CategoryOther, 24 * time.Hour},
		{models.Category("unmapped"), 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			// Подготовка
			service, repoMock, usersMock := newTestIncidentService(t)
			ctx := context.Background()
			ownerID := uuid.New()
			incident := &models.Incident{
				OwnerID:   ownerID,
				Category:  tt.category,
				Latitude:  43.238,
				Longitude: 76.889,
			}

			// Ожидания
			usersMock.EXPECT().GetByID(ctx, ownerID).Return(&models.User{ID: ownerID}, nil).Times(1)
			repoMock.EXPECT().
				Create(ctx, gomock.Any()).
				DoAndReturn(func(_ context.Context, inc *models.Incident) error {
					// Симулируем, что БД присвоила ID
					inc.ID = uuid.New()
					return nil
				}).Times(1)

			// Действие
			err := service.CreateIncident(ctx, incident)

			// Проверки
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, incident.Status)
			require.NotNil(t, incident.ExpiresAt)
			assert.Equal(t, fixedNow.Add(tt.ttl), *incident.ExpiresAt)
			assert.NotEqual(t, uuid.Nil, incident.ID)
		})
	}
}

func TestCreateIncident_NegativeReputationForbidden(t *testing.T) {
	// Подготовка
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	// Ожидания
	usersMock.EXPECT().GetByID(ctx, ownerID).Return(&models.User{ID: ownerID, Reputation: -1}, nil).Times(1)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	err := service.CreateIncident(ctx, &models.Incident{OwnerID: ownerID, Category: models.CategoryDog})

	// Проверки
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateIncident_BlockedForbidden(t *testing.T) {
	// Подготовка
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	// Ожидания: репутация высокая, но пользователь заблокирован
	usersMock.EXPECT().GetByID(ctx, ownerID).Return(&models.User{ID: ownerID, Reputation: 50, Blocked: true}, nil).Times(1)
	repoMock.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	// Действие
	err := service.CreateIncident(ctx, &models.Incident{OwnerID: ownerID, Category: models.CategoryCrime})

	// Проверки
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateIncident_OwnerNotFound(t *testing.T) {
	service, _, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	ownerID := uuid.New()

	usersMock.EXPECT().GetByID(ctx, ownerID).Return(nil, ErrUserNotFound).Times(1)

	err := service.CreateIncident(ctx, &models.Incident{OwnerID: ownerID, Category: models.CategoryDog})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateIncident_InvalidCoordinates(t *testing.T) {
	service, _, _ := newTestIncidentService(t)

	err := service.CreateIncident(context.Background(), &models.Incident{OwnerID: uuid.New(), Latitude: 91})

	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetIncident_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	incidentID := uuid.New()

	// Ожидания
	repoMock.EXPECT().GetByID(ctx, incidentID).Return(nil, ErrIncidentNotFound).Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, incidentID)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "could not get incident")
}

func TestQueryIncidents_DefaultRadius(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	expected := []*models.Incident{{ID: uuid.New()}, {ID: uuid.New()}}

	// Ожидания
	repoMock.EXPECT().
		FindActiveNearby(ctx, models.IncidentQuery{Latitude: 43.2, Longitude: 76.9, RadiusMeters: 1000}, fixedNow).
		Return(expected, nil).
		Times(1)

	// Действие
	incidents, err := service.QueryIncidents(ctx, models.IncidentQuery{Latitude: 43.2, Longitude: 76.9})

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expected, incidents)
}

func TestQueryIncidents_RepositoryError(t *testing.T) {
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()

	repoMock.EXPECT().FindActiveNearby(ctx, gomock.Any(), fixedNow).Return(nil, fmt.Errorf("connection refused")).Times(1)

	_, err := service.QueryIncidents(ctx, models.IncidentQuery{Latitude: 1, Longitude: 1, RadiusMeters: 200})

	assert.ErrorContains(t, err, "could not query incidents")
}

// expectAdmin настраивает хранимую проекцию администратора для actor
func expectAdmin(usersMock *mocks.MockUserRepository, actor models.Identity) {
	usersMock.EXPECT().
		GetByID(gomock.Any(), actor.UserID).
		Return(&models.User{ID: actor.UserID, Role: models.RoleAdmin}, nil).
		Times(1)
}

func TestSetIncidentStatus_StoredRoleIsAuthoritative(t *testing.T) {
	// Подготовка: токен заявляет admin, но в базе пользователь student
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	actor := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	// Ожидания
	usersMock.EXPECT().GetByID(ctx, actor.UserID).Return(&models.User{ID: actor.UserID, Role: models.RoleStudent}, nil).Times(1)
	repoMock.EXPECT().GetByID(gomock.Any(), gomock.Any()).Times(0)
	repoMock.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Действие
	_, err := service.SetIncidentStatus(ctx, actor, uuid.New(), models.StatusResolved)

	// Проверки
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSetIncidentStatus_StoredAdminWithStudentClaim(t *testing.T) {
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	id := uuid.New()
	actor := models.Identity{UserID: uuid.New(), Role: models.RoleStudent}

	expectAdmin(usersMock, actor)
	repoMock.EXPECT().GetByID(ctx, id).Return(&models.Incident{ID: id, Status: models.StatusActive}, nil).Times(1)
	repoMock.EXPECT().UpdateStatus(ctx, id, models.StatusActive, models.StatusResolved).Return(nil).Times(1)

	incident, err := service.SetIncidentStatus(ctx, actor, id, models.StatusResolved)

	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, incident.Status)
}

func TestSetIncidentStatus_UnregisteredActor(t *testing.T) {
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	actor := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	usersMock.EXPECT().GetByID(ctx, actor.UserID).Return(nil, ErrUserNotFound).Times(1)
	repoMock.EXPECT().GetByID(gomock.Any(), gomock.Any()).Times(0)

	_, err := service.SetIncidentStatus(ctx, actor, uuid.New(), models.StatusFake)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSetIncidentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    models.IncidentStatus
		to      models.IncidentStatus
		allowed bool
	}{
		{models.StatusActive, models.StatusResolved, true},
		{models.StatusActive, models.StatusFake, true},
		{models.StatusFake, models.StatusActive, true},
		{models.StatusResolved, models.StatusActive, false},
		{models.StatusResolved, models.StatusFake, false},
		{models.StatusFake, models.StatusResolved, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			// Подготовка
			service, repoMock, usersMock := newTestIncidentService(t)
			ctx := context.Background()
			id := uuid.New()
			admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

			// Ожидания
			expectAdmin(usersMock, admin)
			repoMock.EXPECT().GetByID(ctx, id).Return(&models.Incident{ID: id, Status: tt.from}, nil).Times(1)
			if tt.allowed {
				repoMock.EXPECT().UpdateStatus(ctx, id, tt.from, tt.to).Return(nil).Times(1)
			}

			// Действие
			incident, err := service.SetIncidentStatus(ctx, admin, id, tt.to)

			// Проверки
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, incident.Status)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
}

func TestSetIncidentStatus_ConcurrentChange(t *testing.T) {
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	id := uuid.New()
	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	// Между чтением и условным обновлением статус сменил Sweeper
	expectAdmin(usersMock, admin)
	repoMock.EXPECT().GetByID(ctx, id).Return(&models.Incident{ID: id, Status: models.StatusActive}, nil).Times(1)
	repoMock.EXPECT().UpdateStatus(ctx, id, models.StatusActive, models.StatusFake).Return(ErrInvalidTransition).Times(1)

	_, err := service.SetIncidentStatus(ctx, admin, id, models.StatusFake)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestValidateIncident_FakeBecomesActive(t *testing.T) {
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	id := uuid.New()
	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	expectAdmin(usersMock, admin)
	repoMock.EXPECT().GetByID(ctx, id).Return(&models.Incident{ID: id, Status: models.StatusFake}, nil).Times(1)
	repoMock.EXPECT().UpdateStatus(ctx, id, models.StatusFake, models.StatusActive).Return(nil).Times(1)

	incident, err := service.ValidateIncident(ctx, admin, id)

	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, incident.Status)
}

func TestValidateIncident_ActiveUnchanged(t *testing.T) {
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	id := uuid.New()
	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	expectAdmin(usersMock, admin)
	repoMock.EXPECT().GetByID(ctx, id).Return(&models.Incident{ID: id, Status: models.StatusActive}, nil).Times(1)
	repoMock.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	incident, err := service.ValidateIncident(ctx, admin, id)

	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, incident.Status)
}

func TestValidateIncident_ResolvedRejected(t *testing.T) {
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	id := uuid.New()
	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	expectAdmin(usersMock, admin)
	repoMock.EXPECT().GetByID(ctx, id).Return(&models.Incident{ID: id, Status: models.StatusResolved}, nil).Times(1)

	_, err := service.ValidateIncident(ctx, admin, id)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestValidateIncident_NonAdminForbidden(t *testing.T) {
	service, repoMock, usersMock := newTestIncidentService(t)
	ctx := context.Background()
	actor := models.Identity{UserID: uuid.New(), Role: models.RoleVolunteer}

	usersMock.EXPECT().GetByID(ctx, actor.UserID).Return(&models.User{ID: actor.UserID, Role: models.RoleVolunteer}, nil).Times(1)
	repoMock.EXPECT().GetByID(gomock.Any(), gomock.Any()).Times(0)

	_, err := service.ValidateIncident(ctx, actor, uuid.New())

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestValidateIncident_LogsServiceFields(t *testing.T) {
	// Подготовка
	service, repoMock, usersMock := newTestIncidentService(t)
	logger, hook := logtest.NewNullLogger()
	service.logger = logger
	ctx := context.Background()
	id := uuid.New()
	admin := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	// Ожидания
	expectAdmin(usersMock, admin)
	repoMock.EXPECT().GetByID(ctx, id).Return(&models.Incident{ID: id, Status: models.StatusFake}, nil).Times(1)
	repoMock.EXPECT().UpdateStatus(ctx, id, models.StatusFake, models.StatusActive).Return(nil).Times(1)

	// Действие
	_, err := service.ValidateIncident(ctx, admin, id)

	// Проверки
	require.NoError(t, err)
	require.NotEmpty(t, hook.AllEntries())
	for _, entry := range hook.AllEntries() {
		assert.Equal(t, "incident", entry.Data["service"])
		assert.Equal(t, "ValidateIncident", entry.Data["method"])
		assert.Equal(t, id, entry.Data["incident_id"])
	}
}
