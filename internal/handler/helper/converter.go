package helper

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/contest-exam-api/internal/service"
)

// maxUserAgentLen совпадает с размером колонки exam_papers.user_agent
const maxUserAgentLen = 512

// ClientInfoFromRequest извлекает IP и User-Agent клиента для записи в лист.
// IP берется через c.ClientIP(), поэтому зависит от настройки доверенных прокси.
func ClientInfoFromRequest(c *gin.Context) service.ClientInfo {
	ua := c.Request.UserAgent()
	if len(ua) > maxUserAgentLen {
		ua = ua[:maxUserAgentLen]
	}
	return service.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: ua,
	}
}
