package controllers

import (
	"PatientRegistry/services"
	"PatientRegistry/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Auth     *services.AuthService
	Staff    *services.StaffService
	Patients *services.PatientService

	MaxUploadBytes int64
	// ShowDetail adds the raw error to failed responses. Off in production.
	ShowDetail bool
}

// respondError is the one place a service error becomes an HTTP answer.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := util.HTTPStatus(err)
	if status >= 500 {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, util.FailedResponse(err, h.ShowDetail))
}
