package public

import (
	"strings"

	handlershared "github.com/creatorhub/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

const sessionKeyHeader = "X-Session-Key"

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "user_id", "用户标识无效", "用户标识类型错误")
}

// getSessionKey 解析访客会话标识，优先取请求头。
func getSessionKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(sessionKeyHeader)); key != "" {
		return key
	}
	return strings.TrimSpace(c.Query("session_key"))
}
