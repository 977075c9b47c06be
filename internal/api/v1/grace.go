package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memberbase/memberbase/internal/api/dto"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/service"
)

// GraceHandler exposes the membership testing console: inspecting grace
// status and firing lifecycle transitions by hand.
type GraceHandler struct {
	lifecycle     service.GraceLifecycleService
	notifications service.NotificationService
	log           *logger.Logger
}

func NewGraceHandler(
	lifecycle service.GraceLifecycleService,
	notifications service.NotificationService,
	log *logger.Logger,
) *GraceHandler {
	return &GraceHandler{
		lifecycle:     lifecycle,
		notifications: notifications,
		log:           log,
	}
}

// ListMembers returns all active memberships with their grace status.
func (h *GraceHandler) ListMembers(c *gin.Context) {
	resp, err := h.lifecycle.ListMembers(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to list members", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetStatus returns one member's grace status.
func (h *GraceHandler) GetStatus(c *gin.Context) {
	memberID := c.Param("member_id")
	if memberID == "" {
		c.Error(ierr.NewError("member_id is required").
			WithHint("Member ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.lifecycle.GetGraceStatus(c.Request.Context(), memberID)
	if err != nil {
		h.log.Errorw("failed to get grace status", "error", err, "member_id", memberID)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Trigger fires the end-of-term transition for a member.
func (h *GraceHandler) Trigger(c *gin.Context) {
	var req dto.TriggerGraceRequest
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

	if err := h.lifecycle.EnterGrace(c.Request.Context(), req.MemberID, req.LevelID); err != nil {
		h.log.Errorw("failed to trigger grace entry", "error", err, "member_id", req.MemberID)
		c.Error(err)
		return
	}

	resp, err := h.lifecycle.GetGraceStatus(c.Request.Context(), req.MemberID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reset discards a member's grace bookkeeping.
func (h *GraceHandler) Reset(c *gin.Context) {
	memberID := c.Param("member_id")
	if memberID == "" {
		c.Error(ierr.NewError("member_id is required").
			WithHint("Member ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.lifecycle.ResetGrace(c.Request.Context(), memberID); err != nil {
		h.log.Errorw("failed to reset grace bookkeeping", "error", err, "member_id", memberID)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// ForceExpire lapses a member's grace window immediately.
func (h *GraceHandler) ForceExpire(c *gin.Context) {
	memberID := c.Param("member_id")
	if memberID == "" {
		c.Error(ierr.NewError("member_id is required").
			WithHint("Member ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.lifecycle.ForceExpire(c.Request.Context(), memberID); err != nil {
		h.log.Errorw("failed to force-expire grace period", "error", err, "member_id", memberID)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "expired"})
}

// SimulateEmail sends a lifecycle email to a member on demand.
func (h *GraceHandler) SimulateEmail(c *gin.Context) {
	var req dto.SimulateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.notifications.SimulateEmail(c.Request.Context(), req.MemberID, req.TemplateID); err != nil {
		h.log.Errorw("failed to simulate email", "error", err, "member_id", req.MemberID)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
