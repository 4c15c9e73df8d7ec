package v1

import (
	"github.com/gin-gonic/gin"

	"model-lens/services/catalog-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.GET("/models", r.handlers.Catalog.ListModels)
	group.GET("/models/:id", r.handlers.Catalog.GetModel)

	group.POST("/syncs", r.handlers.Sync.Trigger)
	group.GET("/syncs", r.handlers.Sync.History)
	group.GET("/syncs/latest", r.handlers.Sync.Latest)

	group.POST("/filters", r.handlers.Filter.Create)
	group.GET("/filters", r.handlers.Filter.List)
	group.GET("/filters/:id", r.handlers.Filter.Get)
	group.PATCH("/filters/:id", r.handlers.Filter.Update)
	group.DELETE("/filters/:id", r.handlers.Filter.Delete)
	group.POST("/filters/:id/evaluate", r.handlers.Filter.Evaluate)
	group.GET("/filters/:id/runs", r.handlers.Filter.ListRuns)
	group.GET("/filters/:id/runs/:runId", r.handlers.Filter.GetRun)
}
