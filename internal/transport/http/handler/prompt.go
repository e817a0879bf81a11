package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nikcet/ycla-ai-chat/internal/app"
	"github.com/Nikcet/ycla-ai-chat/internal/transport/http/response"
)

type PromptHandler struct {
	promptService *app.PromptService
}

type SavePromptRequest struct {
	Content string `json:"content" binding:"required,max=8192"`
}

func NewPromptHandler(promptService *app.PromptService) *PromptHandler {
	return &PromptHandler{promptService: promptService}
}

// Save replaces the company's system-prompt override. Takes effect on the
// next chat turn.
func (h *PromptHandler) Save(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid api key context")
		return
	}

	var req SavePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	prompt, err := h.promptService.Save(companyID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrPromptEmpty), errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save prompt failed")
		}
		return
	}

	response.OK(c, gin.H{
		"prompt_id":  prompt.ID,
		"company_id": prompt.CompanyID,
	})
}

func (h *PromptHandler) Get(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid api key context")
		return
	}

	prompt, err := h.promptService.Get(companyID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch prompt failed")
		return
	}
	if prompt == nil {
		response.OK(c, gin.H{"content": ""})
		return
	}

	response.OK(c, gin.H{"content": prompt.Content})
}
