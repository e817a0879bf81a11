package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nikcet/ycla-ai-chat/internal/app"
	"github.com/Nikcet/ycla-ai-chat/internal/transport/http/response"
)

type CompanyHandler struct {
	companyService *app.CompanyService
	taskService    *app.TaskService
}

type RegisterRequest struct {
	Name string `json:"name" binding:"required,min=2,max=128"`
}

type TeardownRequest struct {
	CallbackURL string `json:"callback_url" binding:"omitempty,url,max=512"`
}

func NewCompanyHandler(companyService *app.CompanyService, taskService *app.TaskService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		taskService:    taskService,
	}
}

func (h *CompanyHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	company, err := h.companyService.Register(req.Name)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrNameTaken):
			response.Error(c, http.StatusBadRequest, response.CodeNameExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "register failed")
		}
		return
	}

	// The only time the key is ever shown.
	response.OK(c, gin.H{
		"company_id": company.ID,
		"name":       company.Name,
		"api_key":    company.APIKey,
	})
}

// Teardown enqueues removal of the company and everything it owns. The caller
// polls the task or listens on the callback.
func (h *CompanyHandler) Teardown(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid api key context")
		return
	}

	// Body is optional for teardown.
	var req TeardownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = TeardownRequest{}
	}

	taskID, err := h.taskService.SubmitTeardown(c.Request.Context(), companyID, req.CallbackURL)
	if err != nil {
		if errors.Is(err, app.ErrTaskEnqueue) {
			response.Error(c, http.StatusServiceUnavailable, response.CodeTaskEnqueue, "enqueue teardown failed")
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "submit teardown failed")
		}
		return
	}

	response.OK(c, gin.H{"task_id": taskID})
}
