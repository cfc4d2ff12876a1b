package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"PatientRegistry/config/authorization"
	"PatientRegistry/role"
	"PatientRegistry/services"
	"PatientRegistry/util"

	"github.com/gin-gonic/gin"
)

const (
	frontField = "prescriptionFront"
	backField  = "prescriptionBack"
	// form fields and multipart framing on top of the two files
	formOverhead = 1 << 20
)

type listQuery struct {
	Search        string `form:"search"`
	Name          string `form:"name"`
	Address       string `form:"address"`
	MobileNo      string `form:"mobileNo"`
	AlternativeNo string `form:"alternativeNo"`
	StartDate     string `form:"startDate"`
	EndDate       string `form:"endDate"`
	RegisteredBy  string `form:"registeredBy"`
	SortBy        string `form:"sortBy"`
	SortOrder     string `form:"sortOrder"`
	Page          string `form:"page"`
	Limit         string `form:"limit"`
}

func (h *Handler) StaffRoutes(router *gin.RouterGroup) {
	staff := router.Group("/staff-dashboard", authorization.JWTAuth(h.Auth, role.Staff, h.ShowDetail))
	{
		staff.GET("", h.StaffDashboard)
		staff.POST("/patientRegistration", h.RegisterPatient)
		staff.PUT("/patients/:id", h.UpdatePatient)
		staff.GET("/patients", h.ListPatients)
		staff.GET("/patients/:id", h.GetPatient)
	}
}

func (h *Handler) StaffDashboard(c *gin.Context) {
	p := authorization.GetPrincipal(c)
	c.JSON(http.StatusOK, gin.H{"message": "Welcome " + p.Staff.Name, "staff": p.Staff.Profile(nil)})
}

/*
* Read the multipart form with the size cap applied
* Hand the fields and both optional files to the service
 */
func (h *Handler) RegisterPatient(c *gin.Context) {
	form, front, back, err := h.readPatientForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	p := authorization.GetPrincipal(c)
	patient, err := h.Patients.RegisterPatient(c.Request.Context(), p.Staff, patientForm(form), front, back)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, util.SuccessResponse(patient))
}

/*
* Same form as registration, every field optional
* deleteFrontImage and deleteBackImage clear an image when no new file is sent
 */
func (h *Handler) UpdatePatient(c *gin.Context) {
	form, front, back, err := h.readPatientForm(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	patient, err := h.Patients.UpdatePatient(c.Request.Context(), c.Param("id"), patientForm(form), front, back,
		flag(form, "deleteFrontImage"), flag(form, "deleteBackImage"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(patient))
}

func (h *Handler) ListPatients(c *gin.Context) {
	page, err := h.listPatients(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        page.Data,
		"count":       len(page.Data),
		"currentPage": page.CurrentPage,
		"totalPages":  page.TotalPages,
		"totalCount":  page.TotalCount,
	})
}

func (h *Handler) GetPatient(c *gin.Context) {
	patient, err := h.Patients.GetPatientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse(patient))
}

func (h *Handler) listPatients(c *gin.Context) (*services.PatientPage, error) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return nil, util.NewValidationError("Invalid query parameters")
	}
	page, err := atoiOrZero(q.Page)
	if err != nil {
		return nil, util.NewValidationError("page must be a positive integer")
	}
	limit, err := atoiOrZero(q.Limit)
	if err != nil {
		return nil, util.NewValidationError("limit must be a positive integer")
	}
	return h.Patients.ListPatients(c.Request.Context(), services.PatientListRequest{
		Search:        q.Search,
		Name:          q.Name,
		Address:       q.Address,
		MobileNo:      q.MobileNo,
		AlternativeNo: q.AlternativeNo,
		StartDate:     q.StartDate,
		EndDate:       q.EndDate,
		RegisteredBy:  q.RegisteredBy,
		SortBy:        q.SortBy,
		SortOrder:     q.SortOrder,
		Page:          page,
		Limit:         limit,
	})
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (h *Handler) readPatientForm(c *gin.Context) (url.Values, *services.Upload, *services.Upload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.MaxUploadBytes+formOverhead)
	err := c.Request.ParseMultipartForm(formOverhead)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nil, nil, nil, util.NewValidationError(fmt.Sprintf("Request exceeds the %d MB upload limit", h.MaxUploadBytes>>20))
	case err != nil && !errors.Is(err, http.ErrNotMultipart):
		return nil, nil, nil, util.NewValidationError("Invalid form data")
	}

	values := c.Request.PostForm
	if c.Request.MultipartForm != nil {
		values = c.Request.MultipartForm.Value
	}
	front, err := readUpload(c, frontField)
	if err != nil {
		return nil, nil, nil, err
	}
	back, err := readUpload(c, backField)
	if err != nil {
		return nil, nil, nil, err
	}
	return values, front, back, nil
}

func readUpload(c *gin.Context, field string) (*services.Upload, error) {
	if c.Request.MultipartForm == nil {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, util.NewValidationError("Invalid " + field + " upload")
	}
	data, err := readFile(fh)
	if err != nil {
		return nil, util.NewInternalError("failed to read upload", err)
	}
	return &services.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// patientForm keeps the difference between a missing field and an empty one.
func patientForm(values url.Values) services.PatientForm {
	field := func(name string) *string {
		v, ok := values[name]
		if !ok || len(v) == 0 {
			return nil
		}
		return &v[0]
	}
	return services.PatientForm{
		Name:             field("name"),
		Age:              field("age"),
		Gender:           field("gender"),
		Address:          field("address"),
		MobileNo:         field("mobileNo"),
		AlternativeNo:    field("alternativeNo"),
		RegistrationDate: field("registrationDate"),
	}
}

func flag(values url.Values, name string) bool {
	ok, _ := strconv.ParseBool(values.Get(name))
	return ok
}
