package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"model-lens/services/catalog-api/internal/domain/catalog"
	"model-lens/services/catalog-api/internal/interfaces/httpserver/responses"
)

// CatalogHandler exposes the aggregated model catalog.
type CatalogHandler struct {
	service *catalog.Service
	log     zerolog.Logger
}

func NewCatalogHandler(service *catalog.Service, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log.With().Str("component", "catalog-handler").Logger(),
	}
}

// ListModels godoc
// @Summary      List aggregated models
// @Description  Returns the current catalog aggregated across all sources.
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  responses.ModelListResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Router       /v1/models [get]
func (h *CatalogHandler) ListModels(c *gin.Context) {
	models, err := h.service.ListModels(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to load catalog")
		return
	}
	c.JSON(http.StatusOK, responses.NewModelListResponse(models))
}

// GetModel godoc
// @Summary      Get one model
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Model ID"
// @Success      200  {object}  model.Model
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/models/{id} [get]
func (h *CatalogHandler) GetModel(c *gin.Context) {
	m, err := h.service.GetModel(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to load model")
		return
	}
	c.JSON(http.StatusOK, m)
}
