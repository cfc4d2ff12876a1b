package routes

import (
	"net/http"

	"PatientRegistry/controllers"
	"PatientRegistry/middleware"

	"github.com/gin-gonic/gin"
)

type Options struct {
	BasePath  string
	RateLimit middleware.RateLimitConfig
	Metrics   http.Handler
}

func Routes(r *gin.Engine, h *controllers.Handler, opts Options) {

	//public
	controllers.Health(r)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	api := r.Group(opts.BasePath)
	h.AuthRoutes(api, middleware.RateLimit(opts.RateLimit))

	//privateroutes
	h.AdminRoutes(api)
	h.StaffRoutes(api)
}
