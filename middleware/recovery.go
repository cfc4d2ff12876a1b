package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"PatientRegistry/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a panic into the generic 500 body. The panic value is only
// echoed back when showDetail is set.
func Recovery(logger *zap.Logger, showDetail bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)

				logger.Error("panic recovered",
					zap.String("panic", fmt.Sprintf("%v", r)),
					zap.String("path", c.Request.URL.Path),
					zap.ByteString("stack", stack[:n]),
				)

				err := util.NewInternalError(util.SERVER_ERROR, fmt.Errorf("panic: %v", r))
				c.AbortWithStatusJSON(http.StatusInternalServerError, util.FailedResponse(err, showDetail))
			}
		}()
		c.Next()
	}
}
