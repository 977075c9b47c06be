package cron

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memberbase/memberbase/internal/api/dto"
	"github.com/memberbase/memberbase/internal/clock"
	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/postgres"
	"github.com/memberbase/memberbase/internal/service"
)

const sweepLockKey = "grace:sweep"

// GraceCronHandler handles the scheduled grace jobs: the expiration sweep
// and the warning email run.
type GraceCronHandler struct {
	lifecycle     service.GraceLifecycleService
	notifications service.NotificationService
	db            *postgres.Client
	clock         clock.Clock
	logger        *logger.Logger
}

// NewGraceCronHandler creates a new grace cron handler
func NewGraceCronHandler(
	lifecycle service.GraceLifecycleService,
	notifications service.NotificationService,
	db *postgres.Client,
	clk clock.Clock,
	logger *logger.Logger,
) *GraceCronHandler {
	return &GraceCronHandler{
		lifecycle:     lifecycle,
		notifications: notifications,
		db:            db,
		clock:         clk,
		logger:        logger,
	}
}

// RunSweep finalizes all lapsed grace windows. A transaction-level advisory
// lock keeps the sweep single-flight across instances; an overlapping trigger
// is reported rather than run twice. The lock releases with the transaction,
// so it cannot be stranded on an idle pooled connection.
func (h *GraceCronHandler) RunSweep(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.clock.Now()
	h.logger.Infow("starting grace sweep cron job", "time", now)

	var finalized []string
	sweep := func(ctx context.Context) error {
		ids, err := h.lifecycle.RunSweep(ctx, now)
		if err != nil {
			return err
		}
		finalized = ids
		return nil
	}

	var err error
	if h.db != nil {
		err = h.db.WithTx(ctx, func(ctx context.Context) error {
			acquired, err := h.db.TryLockKey(ctx, sweepLockKey)
			if err != nil {
				return err
			}
			if !acquired {
				return ierr.NewError("a sweep is already running").
					WithHint("Another sweep run holds the lock; try again later").
					Mark(ierr.ErrInvalidOperation)
			}
			return sweep(ctx)
		})
	} else {
		err = sweep(ctx)
	}
	if err != nil {
		h.logger.Errorw("grace sweep failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SweepResponse{
		FinalizedMemberIDs: finalized,
		RanAt:              now,
	})
}

// RunWarnings sends the scheduled expiration warning emails.
func (h *GraceCronHandler) RunWarnings(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.clock.Now()
	h.logger.Infow("starting expiration warning cron job", "time", now)

	sent, err := h.notifications.SendExpirationWarnings(ctx, now)
	if err != nil {
		h.logger.Errorw("expiration warning run failed", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.WarningRunResponse{
		Sent:  sent,
		RanAt: now,
	})
}
