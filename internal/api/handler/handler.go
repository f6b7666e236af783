package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-tempo/internal/api/dto"
	orcherrors "go-tempo/internal/errors"
	"go-tempo/internal/publisher"
	"go-tempo/internal/query"
)

// Handler adapts the publisher and query API onto gin routes.
type Handler struct {
	publisher *publisher.Publisher
	query     *query.API

	// onSubmit, if set, is called with every newly published scenario
	// id. The janitor has no secondary index of its own, so the server
	// wires this to its sweep-list tracker.
	onSubmit func(scenarioID string)
}

// New constructs a Handler.
func New(pub *publisher.Publisher, q *query.API) *Handler {
	return &Handler{publisher: pub, query: q}
}

// OnSubmit registers a callback invoked after every successful scenario
// submission.
func (h *Handler) OnSubmit(fn func(scenarioID string)) {
	h.onSubmit = fn
}

// SubmitScenario handles POST /api/v1/scenarios.
func (h *Handler) SubmitScenario(c *gin.Context) {
	var req dto.SubmitScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scenarioID, err := h.publisher.Submit(c.Request.Context(), req.TemplateName, req.Version, req.Parameters)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.onSubmit != nil {
		h.onSubmit(scenarioID)
	}

	c.JSON(http.StatusCreated, dto.SubmitScenarioResponse{ScenarioID: scenarioID})
}

// GetScenario handles GET /api/v1/scenarios/:id.
func (h *Handler) GetScenario(c *gin.Context) {
	summary, err := h.query.GetScenario(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromScenarioSummary(summary))
}

// GetTask handles GET /api/v1/tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.query.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromTask(task))
}

// QueueDepth handles GET /api/v1/queues/:service/depth.
func (h *Handler) QueueDepth(c *gin.Context) {
	service := c.Param("service")
	depth, err := h.query.QueueDepth(c.Request.Context(), service)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QueueDepthResponse{Service: service, Depth: depth})
}

// writeError maps the error taxonomy onto HTTP status codes (spec.md 7).
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, orcherrors.ErrUnknownTemplate),
		errors.Is(err, orcherrors.ErrUnknownTask),
		errors.Is(err, orcherrors.ErrUnknownScenario):
		status = http.StatusNotFound
	case errors.Is(err, orcherrors.ErrInvalidTemplate),
		errors.Is(err, orcherrors.ErrCyclicTemplate),
		errors.Is(err, orcherrors.ErrAmbiguousRef),
		errors.Is(err, orcherrors.ErrDanglingRef),
		errors.Is(err, orcherrors.ErrIDCollision):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, orcherrors.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, orcherrors.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
