package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memberbase/memberbase/internal/api/cron"
	v1 "github.com/memberbase/memberbase/internal/api/v1"
	"github.com/memberbase/memberbase/internal/config"
	"github.com/memberbase/memberbase/internal/logger"
	"github.com/memberbase/memberbase/internal/rest/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Grace     *v1.GraceHandler
	Renewals  *v1.RenewalHandler
	Donations *v1.DonationReportHandler
	GraceCron *cron.GraceCronHandler
}

// NewRouter builds the gin engine with the standard middleware chain and all
// routes mounted.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := router.Group("/v1/admin")
	{
		grace := admin.Group("/grace")
		{
			grace.GET("/members", handlers.Grace.ListMembers)
			grace.GET("/members/:member_id", handlers.Grace.GetStatus)
			grace.POST("/members/:member_id/reset", handlers.Grace.Reset)
			grace.POST("/members/:member_id/force_expire", handlers.Grace.ForceExpire)
			grace.POST("/trigger", handlers.Grace.Trigger)
			grace.POST("/simulate_email", handlers.Grace.SimulateEmail)
		}

		reports := admin.Group("/reports")
		{
			reports.GET("/donations", handlers.Donations.GetReport)
			reports.GET("/donations/csv", handlers.Donations.ExportCSV)
		}
	}

	v1Group := router.Group("/v1")
	{
		v1Group.POST("/renewals/recalculate", handlers.Renewals.Recalculate)
	}

	jobs := router.Group("/cron")
	{
		jobs.POST("/expiration/sweep", handlers.GraceCron.RunSweep)
		jobs.POST("/expiration/warnings", handlers.GraceCron.RunWarnings)
	}

	return router
}
