package controllers

import (
	"net/http"

	"PatientRegistry/config/authorization"
	"PatientRegistry/role"
	"PatientRegistry/util"

	"github.com/gin-gonic/gin"
)

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) AdminRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin-dashboard", authorization.JWTAuth(h.Auth, role.Admin, h.ShowDetail))
	{
		admin.GET("", h.AdminDashboard)
		admin.GET("/staffs", h.ListStaff)
		admin.PATCH("/staff-status/:staffId", h.UpdateStaffStatus)
		admin.GET("/patients", h.AdminListPatients)
	}
}

func (h *Handler) AdminDashboard(c *gin.Context) {
	p := authorization.GetPrincipal(c)
	pending, err := h.Staff.CountPending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Welcome Admin " + p.ID.Hex(), "pendingStaff": pending})
}

func (h *Handler) ListStaff(c *gin.Context) {
	staff, err := h.Staff.ListStaff(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

/*
* Bind the new status from the body
* The acting admin comes from the token, never from the request
 */
func (h *Handler) UpdateStaffStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, util.NewValidationError(util.INVALID_STATUS))
		return
	}
	p := authorization.GetPrincipal(c)
	staff, err := h.Staff.UpdateStaffStatus(c.Request.Context(), p.ID, c.Param("staffId"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (h *Handler) AdminListPatients(c *gin.Context) {
	page, err := h.listPatients(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
