package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"model-lens/services/catalog-api/internal/domain/filter"
	"model-lens/services/catalog-api/internal/domain/query"
	"model-lens/services/catalog-api/internal/interfaces/httpserver/middlewares"
	"model-lens/services/catalog-api/internal/interfaces/httpserver/requests"
	"model-lens/services/catalog-api/internal/interfaces/httpserver/responses"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

// FilterHandler exposes saved filter CRUD, evaluation, and run history.
type FilterHandler struct {
	service  *filter.Service
	validate *validator.Validate
	log      zerolog.Logger
}

func NewFilterHandler(service *filter.Service, log zerolog.Logger) *FilterHandler {
	return &FilterHandler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With().Str("component", "filter-handler").Logger(),
	}
}

// Create godoc
// @Summary      Create a saved filter
// @Tags         filters
// @Accept       json
// @Produce      json
// @Param        request  body      requests.CreateFilterRequest  true  "Filter definition"
// @Success      201      {object}  filter.SavedFilter
// @Failure      400      {object}  responses.ErrorResponse
// @Router       /v1/filters [post]
func (h *FilterHandler) Create(c *gin.Context) {
	var req requests.CreateFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "b0e3d6a9-2c5f-4b8e-a1d4-7f0c3b6e9a28")
		return
	}

	f, err := h.service.Create(c.Request.Context(), middlewares.PrincipalFrom(c), filter.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  filter.Visibility(req.Visibility),
		TeamID:      req.TeamID,
		Rules:       requests.ToClauses(req.Rules),
	})
	if err != nil {
		responses.HandleError(c, err, "failed to create filter")
		return
	}
	c.JSON(http.StatusCreated, f)
}

// List godoc
// @Summary      List accessible filters
// @Tags         filters
// @Produce      json
// @Param        page        query     int     false  "Page number"
// @Param        page_size   query     int     false  "Page size"
// @Param        visibility  query     string  false  "Visibility filter"
// @Success      200         {object}  responses.FilterListResponse
// @Router       /v1/filters [get]
func (h *FilterHandler) List(c *gin.Context) {
	var q requests.ListFiltersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "d8a1f4c7-0e3b-4d6a-9c2f-5b8e1d4a7c90")
		return
	}

	p := query.NewPagination(q.Page, q.PageSize)
	var visibility *filter.Visibility
	if q.Visibility != "" {
		visibility = requests.VisibilityPtr(&q.Visibility)
	}

	filters, total, err := h.service.List(c.Request.Context(), middlewares.PrincipalFrom(c), visibility, p)
	if err != nil {
		responses.HandleError(c, err, "failed to list filters")
		return
	}
	c.JSON(http.StatusOK, responses.NewFilterListResponse(filters, total, p.Page, p.PageSize))
}

// Get godoc
// @Summary      Get a filter
// @Tags         filters
// @Produce      json
// @Param        id   path      string  true  "Filter ID"
// @Success      200  {object}  filter.SavedFilter
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/filters/{id} [get]
func (h *FilterHandler) Get(c *gin.Context) {
	f, err := h.service.Get(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to load filter")
		return
	}
	c.JSON(http.StatusOK, f)
}

// Update godoc
// @Summary      Update a filter
// @Description  Owner-only partial update. Rule or visibility changes bump the filter version.
// @Tags         filters
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Filter ID"
// @Param        request  body      requests.UpdateFilterRequest  true  "Fields to update"
// @Success      200      {object}  filter.SavedFilter
// @Failure      403      {object}  responses.ErrorResponse
// @Router       /v1/filters/{id} [patch]
func (h *FilterHandler) Update(c *gin.Context) {
	var req requests.UpdateFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "f6c9b2e5-8d1a-4f4c-b7e0-3a6d9f2c5b18")
		return
	}

	input := filter.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  requests.VisibilityPtr(req.Visibility),
		TeamID:      req.TeamID,
	}
	if req.Rules != nil {
		input.Rules = requests.ToClauses(req.Rules)
	}

	f, err := h.service.Update(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id"), input)
	if err != nil {
		responses.HandleError(c, err, "failed to update filter")
		return
	}
	c.JSON(http.StatusOK, f)
}

// Delete godoc
// @Summary      Delete a filter
// @Tags         filters
// @Param        id  path  string  true  "Filter ID"
// @Success      204
// @Failure      403  {object}  responses.ErrorResponse
// @Router       /v1/filters/{id} [delete]
func (h *FilterHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to delete filter")
		return
	}
	c.Status(http.StatusNoContent)
}

// Evaluate godoc
// @Summary      Evaluate a filter against the catalog
// @Description  Runs the filter's rules over the aggregated catalog and records an auditable run.
// @Tags         filters
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true   "Filter ID"
// @Param        request  body      requests.EvaluateFilterRequest  false  "Evaluation options"
// @Success      200      {object}  filter.Run
// @Failure      403      {object}  responses.ErrorResponse
// @Router       /v1/filters/{id}/evaluate [post]
func (h *FilterHandler) Evaluate(c *gin.Context) {
	var req requests.EvaluateFilterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "a4d7f0b3-6e9c-4a2d-8b5f-1c4e7a0d3f66")
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "e2b5c8f1-4a7d-4e0b-93c6-6f9a2d5e8b37")
			return
		}
	}

	run, err := h.service.Evaluate(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id"), filter.EvaluateOptions{
		Limit:     req.Limit,
		ModelID:   req.ModelID,
		Artifacts: req.Artifacts,
	})
	if err != nil {
		responses.HandleError(c, err, "failed to evaluate filter")
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListRuns godoc
// @Summary      List a filter's evaluation runs
// @Tags         filters
// @Produce      json
// @Param        id         path      string  true   "Filter ID"
// @Param        page       query     int     false  "Page number"
// @Param        page_size  query     int     false  "Page size"
// @Success      200        {object}  responses.RunListResponse
// @Router       /v1/filters/{id}/runs [get]
func (h *FilterHandler) ListRuns(c *gin.Context) {
	var q requests.ListRunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "c7f0e3b6-9a2d-4c5f-b8e1-4d7a0c3f6b94")
		return
	}

	p := query.NewPagination(q.Page, q.PageSize)
	runs, total, err := h.service.ListRuns(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id"), p)
	if err != nil {
		responses.HandleError(c, err, "failed to list filter runs")
		return
	}
	c.JSON(http.StatusOK, responses.NewRunListResponse(runs, total, p.Page, p.PageSize))
}

// GetRun godoc
// @Summary      Get one evaluation run
// @Tags         filters
// @Produce      json
// @Param        id     path      string  true  "Filter ID"
// @Param        runId  path      string  true  "Run ID"
// @Success      200    {object}  filter.Run
// @Failure      404    {object}  responses.ErrorResponse
// @Router       /v1/filters/{id}/runs/{runId} [get]
func (h *FilterHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), middlewares.PrincipalFrom(c), c.Param("id"), c.Param("runId"))
	if err != nil {
		responses.HandleError(c, err, "failed to load filter run")
		return
	}
	c.JSON(http.StatusOK, run)
}
