package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nikcet/ycla-ai-chat/internal/app"
	"github.com/Nikcet/ycla-ai-chat/internal/transport/http/response"
)

type DocumentHandler struct {
	taskService *app.TaskService
}

func NewDocumentHandler(taskService *app.TaskService) *DocumentHandler {
	return &DocumentHandler{taskService: taskService}
}

// Upload accepts a multipart form with one or more "files" parts and an
// optional "callback_url". Validation failures are client errors; no task is
// created for a rejected batch.
func (h *DocumentHandler) Upload(c *gin.Context) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid api key context")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no files provided")
		return
	}

	files := make([]app.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "read uploaded file failed")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "read uploaded file failed")
			return
		}
		files = append(files, app.UploadFile{Name: header.Filename, Data: data})
	}

	callbackURL := strings.TrimSpace(c.PostForm("callback_url"))

	taskID, err := h.taskService.SubmitIngest(c.Request.Context(), companyID, files, callbackURL)
	if err != nil {
		writeSubmitError(c, err, "submit ingest failed")
		return
	}

	response.OK(c, gin.H{"task_id": taskID})
}

type DeleteRequest struct {
	CallbackURL string `json:"callback_url" binding:"omitempty,url,max=512"`
}

func (h *DocumentHandler) DeleteAll(c *gin.Context) {
	h.submitDelete(c, "")
}

func (h *DocumentHandler) DeleteOne(c *gin.Context) {
	documentID := strings.TrimSpace(c.Param("document_id"))
	if documentID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	h.submitDelete(c, documentID)
}

func (h *DocumentHandler) submitDelete(c *gin.Context, documentID string) {
	companyID, ok := getCompanyIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid api key context")
		return
	}

	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = DeleteRequest{}
	}

	taskID, err := h.taskService.SubmitDelete(c.Request.Context(), companyID, documentID, req.CallbackURL)
	if err != nil {
		writeSubmitError(c, err, "submit delete failed")
		return
	}

	response.OK(c, gin.H{"task_id": taskID})
}

func writeSubmitError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrUnsupportedFile):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, err.Error())
	case errors.Is(err, app.ErrFileTooLarge):
		response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge, err.Error())
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrTaskEnqueue):
		response.Error(c, http.StatusServiceUnavailable, response.CodeTaskEnqueue, "task queue unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
