package util

import (
	"errors"

	"github.com/gin-gonic/gin"
)

func SuccessResponse(data any) gin.H {
	return gin.H{"success": true, "data": data}
}

func MessageResponse(msg string) gin.H {
	return gin.H{"message": msg}
}

// FailedResponse renders err for the client. Raw detail is attached only when
// showDetail is set, which the server does outside production.
func FailedResponse(err error, showDetail bool) gin.H {
	body := gin.H{"success": false, "message": SERVER_ERROR}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		body["message"] = appErr.Message
		if appErr.Status != "" {
			body["status"] = appErr.Status
		}
	}
	if showDetail && err != nil {
		body["error"] = err.Error()
	}
	return body
}
