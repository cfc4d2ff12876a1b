package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Health(router *gin.Engine) {
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running...")
	})
}
