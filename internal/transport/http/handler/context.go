package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Nikcet/ycla-ai-chat/internal/transport/http/middleware"
)

func getCompanyIDFromContext(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.ContextCompanyIDKey)
	if !exists {
		return 0, false
	}
	companyID, ok := v.(uint)
	if !ok || companyID == 0 {
		return 0, false
	}
	return companyID, true
}
