package public

import (
	handlershared "github.com/courier-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

func getUserEmail(c *gin.Context) (string, bool) {
	return handlershared.GetContextString(c, "user_email")
}

func getUserRole(c *gin.Context) (string, bool) {
	return handlershared.GetContextString(c, "user_role")
}

// getActor 一次性读取鉴权中间件注入的邮箱与角色。
func getActor(c *gin.Context) (email, role string, ok bool) {
	email, ok = getUserEmail(c)
	if !ok {
		return "", "", false
	}
	role, ok = getUserRole(c)
	if !ok {
		return "", "", false
	}
	return email, role, true
}
