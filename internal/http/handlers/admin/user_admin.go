package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/repository"
	"github.com/courier-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListUsers 用户列表
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserService.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Role:     strings.TrimSpace(c.Query("role")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch users", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, users, pagination)
}

// UpdateUserRoleRequest 调整角色请求
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateUserRole 调整用户角色
func (h *Handler) UpdateUserRole(c *gin.Context) {
	adminEmail, ok := getAdminEmail(c)
	if !ok {
		return
	}

	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}

	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	user, err := h.UserService.UpdateRole(uint(userID), strings.ToLower(strings.TrimSpace(req.Role)))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, service.ErrInvalidRole):
			respondError(c, response.CodeBadRequest, "unknown role", nil)
		default:
			respondError(c, response.CodeInternal, "failed to update role", err)
		}
		return
	}

	requestLog(c).Infow("user_role_updated",
		"user_id", user.ID,
		"role", user.Role,
		"admin_email", adminEmail,
	)
	response.Success(c, user)
}

// GetUser 用户详情
func (h *Handler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		respondError(c, response.CodeBadRequest, "invalid user id", nil)
		return
	}

	user, err := h.UserService.GetByID(uint(userID))
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch user", err)
		return
	}
	if user == nil {
		response.NotFound(c, "user not found")
		return
	}

	response.Success(c, user)
}
