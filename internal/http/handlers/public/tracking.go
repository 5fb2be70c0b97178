package public

import (
	"strings"

	"github.com/courier-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// TrackParcel 按运单号查询包裹轨迹
func (h *Handler) TrackParcel(c *gin.Context) {
	email, role, ok := getActor(c)
	if !ok {
		return
	}

	trackingID := strings.TrimSpace(c.Param("tracking_id"))
	if trackingID == "" {
		respondError(c, response.CodeBadRequest, "tracking id is required", nil)
		return
	}

	view, err := h.TrackingService.History(trackingID, email, role)
	if err != nil {
		respondParcelAccessError(c, err)
		return
	}

	response.Success(c, view)
}
