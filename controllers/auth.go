package controllers

import (
	"net/http"

	"PatientRegistry/role"
	"PatientRegistry/util"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthRoutes registers the public account endpoints. limit guards every one of them.
func (h *Handler) AuthRoutes(router *gin.RouterGroup, limit gin.HandlerFunc) {
	router.POST("/loginAdmin", limit, h.LoginAdmin)
	router.POST("/loginStaff", limit, h.LoginStaff)
	router.POST("/signupStaff", limit, h.SignupStaff)
	router.POST("/forgotPasswordAdmin", limit, h.forgotPassword(role.Admin))
	router.POST("/forgotPasswordStaff", limit, h.forgotPassword(role.Staff))
	router.POST("/resetPasswordAdmin", limit, h.resetPassword(role.Admin))
	router.POST("/resetPasswordStaff", limit, h.resetPassword(role.Staff))
}

/*
* Bind the credentials, a malformed body is a validation error
* The session is returned as is
 */
func (h *Handler) LoginAdmin(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, util.NewValidationError(util.PROVIDE_ALL_FIELDS))
		return
	}
	sess, err := h.Auth.LoginAdmin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) LoginStaff(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, util.NewValidationError(util.PROVIDE_ALL_FIELDS))
		return
	}
	sess, err := h.Auth.LoginStaff(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) SignupStaff(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, util.NewValidationError(util.PROVIDE_ALL_FIELDS))
		return
	}
	sess, err := h.Auth.RegisterStaff(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) forgotPassword(r role.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forgotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, util.NewValidationError(util.PROVIDE_EMAIL))
			return
		}
		msg, err := h.Auth.RequestPasswordReset(c.Request.Context(), req.Email, r)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, util.MessageResponse(msg))
	}
}

func (h *Handler) resetPassword(r role.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondError(c, util.NewValidationError(util.PROVIDE_TOKEN_AND_PASSWORD))
			return
		}
		msg, err := h.Auth.ResetPassword(c.Request.Context(), req.Token, req.Password, r)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, util.MessageResponse(msg))
	}
}
