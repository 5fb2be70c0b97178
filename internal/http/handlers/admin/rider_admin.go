package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/models"
	"github.com/courier-next/internal/repository"
	"github.com/courier-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListRiderApplications 骑手申请列表
func (h *Handler) ListRiderApplications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	applications, total, err := h.RiderService.List(repository.RiderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch applications", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, applications, pagination)
}

// ApproveRiderApplication 批准骑手申请
func (h *Handler) ApproveRiderApplication(c *gin.Context) {
	h.decideRiderApplication(c, true)
}

// RejectRiderApplication 驳回骑手申请
func (h *Handler) RejectRiderApplication(c *gin.Context) {
	h.decideRiderApplication(c, false)
}

func (h *Handler) decideRiderApplication(c *gin.Context, approve bool) {
	adminEmail, ok := getAdminEmail(c)
	if !ok {
		return
	}

	applicationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || applicationID == 0 {
		respondError(c, response.CodeBadRequest, "invalid application id", nil)
		return
	}

	var application *models.RiderApplication
	var decideErr error
	if approve {
		application, decideErr = h.RiderService.Approve(uint(applicationID), adminEmail)
	} else {
		application, decideErr = h.RiderService.Reject(uint(applicationID), adminEmail)
	}
	if decideErr != nil {
		switch {
		case errors.Is(decideErr, service.ErrNotFound):
			response.NotFound(c, "application not found")
		case errors.Is(decideErr, service.ErrRiderApplicationDecided):
			respondError(c, response.CodeBadRequest, "application has already been decided", nil)
		default:
			respondError(c, response.CodeInternal, "failed to decide application", decideErr)
		}
		return
	}

	requestLog(c).Infow("rider_application_decided",
		"application_id", applicationID,
		"approved", approve,
		"decided_by", adminEmail,
	)
	response.Success(c, application)
}
