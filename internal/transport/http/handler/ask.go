package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docuquery/internal/app"
	"docuquery/internal/model"
	"docuquery/internal/transport/http/response"
)

type AskHandler struct {
	ragService *app.RAGService
	runService *app.RunService
}

type AskRequest struct {
	Document  string          `json:"document" binding:"required"`
	Questions []string        `json:"questions" binding:"required,min=1"`
	Model     string          `json:"model"`
	Concepts  []string        `json:"concepts"`
	Settings  app.AskSettings `json:"settings"`
}

type AskResponse struct {
	Success   bool                 `json:"success"`
	Results   []model.AnswerRecord `json:"results"`
	Timestamp string               `json:"timestamp"`
	RunID     string               `json:"run_id,omitempty"`
}

func NewAskHandler(ragService *app.RAGService, runService *app.RunService) *AskHandler {
	return &AskHandler{ragService: ragService, runService: runService}
}

// Ask answers every question against the document. Document-level failures
// still produce one degraded result per question.
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "document and at least one question are required")
		return
	}

	results, err := h.ragService.AnswerQuestions(c.Request.Context(), req.Document, req.Questions, app.AskOptions{
		Model:    req.Model,
		Concepts: req.Concepts,
		Settings: req.Settings,
	})
	if err != nil {
		if errors.Is(err, app.ErrValidation) {
			response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
		return
	}

	resp := AskResponse{
		Success:   true,
		Results:   results,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if h.runService.Enabled() {
		run := h.runService.Record(c.Request.Context(), req.Document, h.ragService.ModelFor(req.Model), results)
		resp.RunID = run.ID
	}
	response.OK(c, resp)
}
