package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memberbase/memberbase/internal/api/dto"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/service"
)

type RenewalHandler struct {
	service service.RenewalService
	log     *logger.Logger
}

func NewRenewalHandler(service service.RenewalService, log *logger.Logger) *RenewalHandler {
	return &RenewalHandler{service: service, log: log}
}

// Recalculate returns the end date the billing path should store for a
// completed renewal, anchored to the pre-grace end date when applicable.
func (h *RenewalHandler) Recalculate(c *gin.Context) {
	var req dto.RenewalRecalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	endDate, err := h.service.RecalculateEndDate(c.Request.Context(), req.ProposedEnd, req.MemberID, req.LevelID, req.StartDate)
	if err != nil {
		h.log.Errorw("failed to recalculate renewal end date", "error", err, "member_id", req.MemberID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.RenewalRecalculationResponse{
		MemberID: req.MemberID,
		EndDate:  endDate,
		Adjusted: !endDate.Equal(req.ProposedEnd),
	})
}
