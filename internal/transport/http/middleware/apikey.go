package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nikcet/ycla-ai-chat/internal/app"
	"github.com/Nikcet/ycla-ai-chat/internal/transport/http/response"
)

const ContextCompanyIDKey = "company_id"

// AuthAPIKey resolves the tenant from the X-API-Key header. Unknown keys get
// the same response as missing ones.
func AuthAPIKey(companies *app.CompanyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if apiKey == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing api key")
			c.Abort()
			return
		}

		company, err := companies.GetByAPIKey(apiKey)
		if err != nil {
			response.Error(c, 500, response.CodeInternalServer, "resolve api key failed")
			c.Abort()
			return
		}
		if company == nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid api key")
			c.Abort()
			return
		}

		c.Set(ContextCompanyIDKey, company.ID)
		c.Next()
	}
}
