package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docuquery/internal/app"
	"docuquery/internal/model"
	"docuquery/internal/transport/http/response"
)

type RunsHandler struct {
	runService *app.RunService
}

type runView struct {
	ID        string               `json:"id"`
	Document  string               `json:"document"`
	Model     string               `json:"model"`
	Questions int                  `json:"questions"`
	Degraded  int                  `json:"degraded"`
	CreatedAt time.Time            `json:"created_at"`
	Results   []model.AnswerRecord `json:"results"`
}

type runSummary struct {
	ID        string    `json:"id"`
	Document  string    `json:"document"`
	Model     string    `json:"model"`
	Questions int       `json:"questions"`
	Degraded  int       `json:"degraded"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRunsHandler(runService *app.RunService) *RunsHandler {
	return &RunsHandler{runService: runService}
}

// List returns recent run summaries; ?limit= caps the count (default 50).
func (h *RunsHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.runService.List(c.Request.Context(), limit)
	if err != nil {
		writeRunError(c, err, "list runs failed")
		return
	}

	out := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, runSummary{
			ID:        run.ID,
			Document:  run.Document,
			Model:     run.Model,
			Questions: run.Questions,
			Degraded:  run.Degraded,
			CreatedAt: run.CreatedAt,
		})
	}
	response.OK(c, out)
}

func (h *RunsHandler) Get(c *gin.Context) {
	run, err := h.runService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeRunError(c, err, "get run failed")
		return
	}

	response.OK(c, runView{
		ID:        run.ID,
		Document:  run.Document,
		Model:     run.Model,
		Questions: run.Questions,
		Degraded:  run.Degraded,
		CreatedAt: run.CreatedAt,
		Results:   run.Records(),
	})
}

func writeRunError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrRunsDisabled):
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, err.Error())
	case errors.Is(err, app.ErrRunNotFound):
		response.Error(c, http.StatusNotFound, response.CodeRunNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
