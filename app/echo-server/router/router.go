package router

import (
	"sellerLab/internal/middleware"
	"sellerLab/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetAuthRoutes(api *echo.Group, handler *rest.AuthHandler, authRequired echo.MiddlewareFunc) {
	auth := api.Group("/auth")
	auth.POST("/token", handler.Token)
	auth.POST("/revoke", handler.Revoke, authRequired)
}

func SetCredentialAdminRoutes(api *echo.Group, handler *rest.AuthHandler) {
	admin := api.Group("/admin/credentials", middleware.AuthMiddleware(), middleware.AdminOnly())
	admin.POST("", handler.CreateCredential)
}

func SetExperimentRoutes(api *echo.Group, handler *rest.ExperimentHandler, reportHandler *rest.ReportHandler, authRequired echo.MiddlewareFunc) {
	experiments := api.Group("/experiments", authRequired)

	experiments.POST("", handler.Create)
	experiments.GET("", handler.List)
	experiments.GET("/:id", handler.Get)
	experiments.POST("/:id/stop", handler.Stop)
	experiments.GET("/:id/assignment", handler.Assignment)
	experiments.POST("/:id/conversions", handler.RecordConversion)
	experiments.GET("/:id/analysis", handler.Analyze)
	experiments.POST("/:id/share", reportHandler.Share)
}

func SetReportRoutes(api *echo.Group, handler *rest.ReportHandler) {
	reports := api.Group("/reports")
	reports.GET("/:code", handler.Resolve)
}
