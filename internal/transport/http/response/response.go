package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                  = 0
	CodeBadRequest          = 40000
	CodeNameExists          = 40001
	CodeUnsupportedFile     = 40002
	CodeFileTooLarge        = 40003
	CodeUnauthorized        = 40100
	CodeTaskNotFound        = 40401
	CodeInternalServer      = 50000
	CodeProviderUnavailable = 50301
	CodeTaskEnqueue         = 50302
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
