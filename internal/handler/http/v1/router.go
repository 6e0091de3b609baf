package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)

	authorized := api.Group("", BearerAuthMiddleware(h.resolver, h.logger))

	incidents := authorized.Group("/incidents")
	{
		incidents.POST("", h.createIncident)
		incidents.GET("", h.queryIncidents)
		incidents.GET("/:id", h.getIncident)
		incidents.POST("/:id/vote", h.voteIncident)
	}

	authorized.GET("/users/me", h.getMe)

	// Проверка роли администратора выполняется в сервисах
	admin := authorized.Group("/admin")
	{
		admin.PUT("/incidents/:id/status", h.updateIncidentStatus)
		admin.PUT("/incidents/:id/validate", h.validateIncident)
		admin.PUT("/users/:id/block", h.blockUser)
	}
}
