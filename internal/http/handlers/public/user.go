package public

import (
	"errors"
	"strings"

	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/service"

	"github.com/gin-gonic/gin"
)

var userLookupErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, msg: "invalid email address"},
	{target: service.ErrNotFound, code: response.CodeNotFound, msg: "user not found"},
}

// GetUserByEmail 按邮箱查询用户, 仅本人或管理员可见
func (h *Handler) GetUserByEmail(c *gin.Context) {
	actorEmail, actorRole, ok := getActor(c)
	if !ok {
		return
	}

	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		respondError(c, response.CodeBadRequest, "email is required", nil)
		return
	}
	if !strings.EqualFold(email, actorEmail) && actorRole != constants.RoleAdmin {
		response.Forbidden(c, "access denied")
		return
	}

	user, err := h.UserService.GetByEmail(email)
	if err != nil {
		respondWithMappedError(c, err, userLookupErrorRules, response.CodeInternal, "failed to fetch user")
		return
	}

	response.Success(c, user)
}

// GetUserRole 按邮箱查询用户角色
func (h *Handler) GetUserRole(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))
	if email == "" {
		respondError(c, response.CodeBadRequest, "email is required", nil)
		return
	}

	user, err := h.UserService.GetByEmail(email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrInvalidEmail) {
			// 角色查询不区分用户不存在与普通用户, 避免探测注册邮箱
			response.Success(c, gin.H{"role": constants.RoleUser})
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch role", err)
		return
	}

	response.Success(c, gin.H{"role": user.Role})
}
