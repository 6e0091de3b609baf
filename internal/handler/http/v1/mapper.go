package v1

import "github.com/shenikar/saferoute/internal/models"

// DTOToIncidentModel преобразует DTO создания в доменную модель; владелец берется из токена
func DTOToIncidentModel(dto CreateIncidentRequest, owner models.Identity) *models.Incident {
	return &models.Incident{
		OwnerID:     owner.UserID,
		Category:    models.Category(dto.Category),
		Description: dto.Description,
		Latitude:    *dto.Latitude,
		Longitude:   *dto.Longitude,
	}
}

// DTOToIncidentQuery преобразует параметры запроса; нулевой радиус заменит сервис
func DTOToIncidentQuery(dto QueryIncidentsRequest) models.IncidentQuery {
	return models.IncidentQuery{
		Latitude:        *dto.Latitude,
		Longitude:       *dto.Longitude,
		RadiusMeters:    dto.Radius,
		OrderByDistance: dto.Order == "distance",
	}
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:          model.ID,
		OwnerID:     model.OwnerID,
		Category:    string(model.Category),
		Description: model.Description,
		Latitude:    model.Latitude,
		Longitude:   model.Longitude,
		Status:      string(model.Status),
		CreatedAt:   model.CreatedAt,
		ExpiresAt:   model.ExpiresAt,
		Upvotes:     model.Upvotes,
		Downvotes:   model.Downvotes,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(models []*models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(models))
	for i, model := range models {
		responses[i] = ModelToIncidentResponse(model)
	}
	return responses
}

func ModelToVoteResponse(result *models.VoteResult) *VoteResponse {
	return &VoteResponse{
		IncidentID: result.IncidentID,
		State:      string(result.State),
		Upvotes:    result.Upvotes,
		Downvotes:  result.Downvotes,
	}
}

func ModelToUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:         user.ID,
		Role:       string(user.Role),
		Reputation: user.Reputation,
		Blocked:    user.Blocked,
	}
}
