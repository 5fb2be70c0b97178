package public

import (
	"errors"

	"github.com/courier-next/internal/http/response"
	"github.com/courier-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RiderApplyRequest 骑手申请请求
type RiderApplyRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	Phone            string `json:"phone" binding:"required"`
	Address          string `json:"address" binding:"required"`
	NIDNumber        string `json:"nid_number" binding:"required"`
	DrivingLicense   string `json:"driving_license"`
	VehicleType      string `json:"vehicle_type" binding:"required"`
	VehicleNumber    string `json:"vehicle_number"`
	ExperienceYears  int    `json:"experience_years"`
	EmergencyContact string `json:"emergency_contact"`
}

// ApplyRider 提交骑手申请, 邮箱取自登录态
func (h *Handler) ApplyRider(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}

	var req RiderApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	application, err := h.RiderService.Apply(service.ApplyInput{
		FullName:         req.FullName,
		Email:            email,
		Phone:            req.Phone,
		Address:          req.Address,
		NIDNumber:        req.NIDNumber,
		DrivingLicense:   req.DrivingLicense,
		VehicleType:      req.VehicleType,
		VehicleNumber:    req.VehicleNumber,
		ExperienceYears:  req.ExperienceYears,
		EmergencyContact: req.EmergencyContact,
	})
	if err != nil {
		respondRiderApplyError(c, err)
		return
	}

	requestLog(c).Infow("rider_application_submitted",
		"application_id", application.ID,
		"email", application.Email,
	)
	response.Success(c, application)
}

// GetMyRiderApplication 获取当前用户的骑手申请
func (h *Handler) GetMyRiderApplication(c *gin.Context) {
	email, ok := getUserEmail(c)
	if !ok {
		return
	}

	application, err := h.RiderService.GetByEmail(email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(c, "application not found")
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch application", err)
		return
	}

	response.Success(c, application)
}
