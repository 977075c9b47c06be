package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memberbase/memberbase/internal/api/dto"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/service"
)

type DonationReportHandler struct {
	service service.DonationReportService
	log     *logger.Logger
}

func NewDonationReportHandler(service service.DonationReportService, log *logger.Logger) *DonationReportHandler {
	return &DonationReportHandler{service: service, log: log}
}

// GetReport returns donation totals and rows for the requested window.
func (h *DonationReportHandler) GetReport(c *gin.Context) {
	var req dto.DonationReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.GetReport(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.log.Errorw("failed to build donations report", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportCSV streams the filtered report as a CSV download.
func (h *DonationReportHandler) ExportCSV(c *gin.Context) {
	var req dto.DonationReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	out, err := h.service.ExportCSV(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.log.Errorw("failed to export donations CSV", "error", err)
		c.Error(err)
		return
	}

	filename := fmt.Sprintf("donations-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", out)
}
