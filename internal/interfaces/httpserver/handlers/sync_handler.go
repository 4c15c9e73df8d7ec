package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	syncdomain "model-lens/services/catalog-api/internal/domain/sync"
	"model-lens/services/catalog-api/internal/interfaces/httpserver/middlewares"
	"model-lens/services/catalog-api/internal/interfaces/httpserver/responses"
	"model-lens/services/catalog-api/internal/utils/platformerrors"
)

const defaultHistoryLimit = 50

// SyncHandler exposes sync triggering and history.
type SyncHandler struct {
	orchestrator *syncdomain.Orchestrator
	ledger       syncdomain.Ledger
	log          zerolog.Logger
}

func NewSyncHandler(orchestrator *syncdomain.Orchestrator, ledger syncdomain.Ledger, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		ledger:       ledger,
		log:          log.With().Str("component", "sync-handler").Logger(),
	}
}

// Trigger godoc
// @Summary      Trigger a catalog sync
// @Description  Starts a background sync. Reports whether the sync started, not its outcome; check sync history for results.
// @Tags         syncs
// @Produce      json
// @Success      202  {object}  responses.SyncStartedResponse
// @Failure      403  {object}  responses.ErrorResponse
// @Failure      409  {object}  responses.ErrorResponse
// @Router       /v1/syncs [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	p := middlewares.PrincipalFrom(c)
	if !p.IsAdmin {
		responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "sync trigger requires admin", "0d5a8f2c-6b3e-4d1a-9e7c-4f0b8d2a6c35")
		return
	}

	if err := h.orchestrator.StartSync(c.Request.Context()); err != nil {
		if errors.Is(err, syncdomain.ErrSyncInProgress) {
			responses.HandleNewError(c, platformerrors.ErrorTypeConflict, "sync already in progress", "7e2c5a9f-0d4b-4f8e-b1a6-3c9f6e0d4b72")
			return
		}
		responses.HandleError(c, err, "failed to start sync")
		return
	}

	h.log.Info().Str("triggered_by", p.UserID).Msg("sync triggered")
	c.JSON(http.StatusAccepted, responses.SyncStartedResponse{Status: "started"})
}

// History godoc
// @Summary      List sync history
// @Tags         syncs
// @Produce      json
// @Param        limit  query     int  false  "Max operations to return"
// @Success      200    {object}  responses.SyncHistoryResponse
// @Router       /v1/syncs [get]
func (h *SyncHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	ops, err := h.ledger.ListSyncHistory(c.Request.Context(), limit)
	if err != nil {
		responses.HandleError(c, err, "failed to list sync history")
		return
	}
	c.JSON(http.StatusOK, responses.NewSyncHistoryResponse(ops))
}

// Latest godoc
// @Summary      Get the latest completed sync
// @Tags         syncs
// @Produce      json
// @Success      200  {object}  sync.Operation
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/syncs/latest [get]
func (h *SyncHandler) Latest(c *gin.Context) {
	op, err := h.ledger.LatestCompletedSync(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to load latest sync")
		return
	}
	if op == nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeNotFound, "no completed sync exists", "9c4f1e7b-5a2d-4e0c-8f6b-1d8a4c7f0e53")
		return
	}
	c.JSON(http.StatusOK, op)
}
