package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Access    *AccessHandler
	Statistic *StatisticHandler
	// Admin is optional.
	Admin *AdminHandler
}

// NewRouter mounts the API under /api behind auth.
func NewRouter(h Handlers, auth gin.HandlerFunc, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))
	r.Use(HeadToGetMiddleware())
	r.Use(CORSMiddleware())

	api := r.Group("/api", auth)
	{
		api.POST("/statistics/count", h.Statistic.Count)
		api.GET("/access/check", h.Access.Check)
		api.HEAD("/access/check", h.Access.Check)
	}

	user := api.Group("", RequireUser())
	{
		user.GET("/access", h.Access.List)
		user.HEAD("/access", h.Access.List)
		user.POST("/access", h.Access.Request)
		user.POST("/access/grant", h.Access.Grant)
		user.POST("/access/:id/approve", h.Access.Approve)
		user.POST("/access/:id/reject", h.Access.Reject)
		user.POST("/access/inform/:user", h.Access.Inform)
		user.GET("/access/open/:user", h.Access.OpenRequests)
		user.GET("/statistics", h.Statistic.Query)

		if h.Admin != nil {
			user.POST("/admin/sweep", h.Admin.Sweep)
		}
	}

	return r
}
