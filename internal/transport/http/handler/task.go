package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nikcet/ycla-ai-chat/internal/app"
	"github.com/Nikcet/ycla-ai-chat/internal/transport/http/response"
)

type TaskHandler struct {
	taskService *app.TaskService
}

func NewTaskHandler(taskService *app.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) GetStatus(c *gin.Context) {
	if _, ok := getCompanyIDFromContext(c); !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid api key context")
		return
	}

	record, err := h.taskService.GetStatus(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrTaskNotFound):
			response.Error(c, http.StatusNotFound, response.CodeTaskNotFound, "task not found")
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid task id")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch task status failed")
		}
		return
	}

	response.OK(c, record)
}
