package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"PatientRegistry/models"
	"PatientRegistry/role"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultBasePath = "/api/auth"

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	Status     string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("api %d: %s (status %s)", e.StatusCode, e.Message, e.Status)
	}
	return fmt.Sprintf("api %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	session SessionStore
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithSessionStore(s SessionStore) Option {
	return func(c *Client) { c.session = s }
}

// New builds a client for serverURL, e.g. http://localhost:8080. basePath
// defaults to DefaultBasePath when empty.
func New(serverURL, basePath string, opts ...Option) *Client {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	c := &Client{
		baseURL: strings.TrimRight(serverURL, "/") + "/" + strings.Trim(basePath, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: NewMemorySession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() SessionStore { return c.session }

/*
* Attach the bearer token when there is a session
* Any 401 drops the stored session
* Non-2xx bodies become *APIError, 2xx bodies decode into out
 */
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.GetToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.session.ClearSession()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message, apiErr.Status = payload.Message, payload.Status
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	if in == nil {
		return c.do(ctx, method, path, nil, "", nil, out)
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, nil, "application/json", bytes.NewReader(raw), out)
}

type AdminSession struct {
	Token string `json:"token"`
	Admin struct {
		ID    primitive.ObjectID `json:"id"`
		Name  string             `json:"name"`
		Email string             `json:"email"`
	} `json:"admin"`
}

type StaffSession struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	ID      primitive.ObjectID `json:"_id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Status  models.StaffStatus `json:"status"`
}

type messageBody struct {
	Message string `json:"message"`
}

func (c *Client) LoginAdmin(ctx context.Context, email, password string) (*AdminSession, error) {
	var out AdminSession
	if err := c.doJSON(ctx, http.MethodPost, "/loginAdmin", map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	c.session.SetSession(Session{Token: out.Token, Role: role.Admin, ID: out.Admin.ID, Name: out.Admin.Name, Email: out.Admin.Email})
	return &out, nil
}

func (c *Client) LoginStaff(ctx context.Context, email, password string) (*StaffSession, error) {
	var out StaffSession
	if err := c.doJSON(ctx, http.MethodPost, "/loginStaff", map[string]string{"email": email, "password": password}, &out); err != nil {
		return nil, err
	}
	c.setStaffSession(&out)
	return &out, nil
}

// SignupStaff registers a new staff account. The account stays pending until
// an admin approves it, so the stored session is only good for the status gate.
func (c *Client) SignupStaff(ctx context.Context, name, email, password string) (*StaffSession, error) {
	var out StaffSession
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/signupStaff", in, &out); err != nil {
		return nil, err
	}
	c.setStaffSession(&out)
	return &out, nil
}

func (c *Client) setStaffSession(s *StaffSession) {
	c.session.SetSession(Session{Token: s.Token, Role: role.Staff, ID: s.ID, Name: s.Name, Email: s.Email, Status: s.Status})
}

func (c *Client) Logout() {
	c.session.ClearSession()
}

func (c *Client) ForgotPassword(ctx context.Context, r role.Role, email string) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodPost, "/forgotPassword"+r.Title(), map[string]string{"email": email}, &out)
	return out.Message, err
}

func (c *Client) ResetPassword(ctx context.Context, r role.Role, token, password string) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodPost, "/resetPassword"+r.Title(), map[string]string{"token": token, "password": password}, &out)
	return out.Message, err
}

func (c *Client) AdminDashboard(ctx context.Context) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodGet, "/admin-dashboard", nil, &out)
	return out.Message, err
}

func (c *Client) ListStaff(ctx context.Context) ([]models.StaffProfile, error) {
	var out []models.StaffProfile
	err := c.doJSON(ctx, http.MethodGet, "/admin-dashboard/staffs", nil, &out)
	return out, err
}

func (c *Client) UpdateStaffStatus(ctx context.Context, staffID primitive.ObjectID, status models.StaffStatus) (*models.StaffProfile, error) {
	var out models.StaffProfile
	if err := c.doJSON(ctx, http.MethodPatch, "/admin-dashboard/staff-status/"+staffID.Hex(), map[string]string{"status": string(status)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StaffDashboard(ctx context.Context) (string, error) {
	var out messageBody
	err := c.doJSON(ctx, http.MethodGet, "/staff-dashboard", nil, &out)
	return out.Message, err
}

// PatientQuery mirrors the list endpoint's query parameters. Zero values are omitted.
type PatientQuery struct {
	Search        string
	Name          string
	Address       string
	MobileNo      string
	AlternativeNo string
	StartDate     string
	EndDate       string
	RegisteredBy  string
	SortBy        string
	SortOrder     string
	Page          int
	Limit         int
}

func (q PatientQuery) values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("search", q.Search)
	set("name", q.Name)
	set("address", q.Address)
	set("mobileNo", q.MobileNo)
	set("alternativeNo", q.AlternativeNo)
	set("startDate", q.StartDate)
	set("endDate", q.EndDate)
	set("registeredBy", q.RegisteredBy)
	set("sortBy", q.SortBy)
	set("sortOrder", q.SortOrder)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

type PatientPage struct {
	Data        []models.Patient `json:"data"`
	Count       int              `json:"count"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
	TotalCount  int64            `json:"totalCount"`
}

func (c *Client) ListPatients(ctx context.Context, q PatientQuery) (*PatientPage, error) {
	var out PatientPage
	if err := c.do(ctx, http.MethodGet, "/staff-dashboard/patients", q.values(), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdminListPatients(ctx context.Context, q PatientQuery) (*PatientPage, error) {
	var out PatientPage
	if err := c.do(ctx, http.MethodGet, "/admin-dashboard/patients", q.values(), "", nil, &out); err != nil {
		return nil, err
	}
	out.Count = len(out.Data)
	return &out, nil
}

func (c *Client) GetPatient(ctx context.Context, id primitive.ObjectID) (*models.Patient, error) {
	var out struct {
		Data models.Patient `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/staff-dashboard/patients/"+id.Hex(), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// PatientInput carries the form fields. Nil fields are not sent, which on
// update leaves the stored value alone.
type PatientInput struct {
	Name             *string
	Age              *int
	Gender           *models.Gender
	Address          *string
	MobileNo         *string
	AlternativeNo    *string
	RegistrationDate *time.Time
}

type File struct {
	Name string
	Data []byte
}

type PatientUpdate struct {
	PatientInput
	Front, Back      *File
	DeleteFrontImage bool
	DeleteBackImage  bool
}

func (c *Client) RegisterPatient(ctx context.Context, in PatientInput, front, back *File) (*models.Patient, error) {
	return c.sendPatient(ctx, http.MethodPost, "/staff-dashboard/patientRegistration", PatientUpdate{PatientInput: in, Front: front, Back: back})
}

func (c *Client) UpdatePatient(ctx context.Context, id primitive.ObjectID, up PatientUpdate) (*models.Patient, error) {
	return c.sendPatient(ctx, http.MethodPut, "/staff-dashboard/patients/"+id.Hex(), up)
}

func (c *Client) sendPatient(ctx context.Context, method, path string, up PatientUpdate) (*models.Patient, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{}
	in := up.PatientInput
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Age != nil {
		fields["age"] = strconv.Itoa(*in.Age)
	}
	if in.Gender != nil {
		fields["gender"] = string(*in.Gender)
	}
	if in.Address != nil {
		fields["address"] = *in.Address
	}
	if in.MobileNo != nil {
		fields["mobileNo"] = *in.MobileNo
	}
	if in.AlternativeNo != nil {
		fields["alternativeNo"] = *in.AlternativeNo
	}
	if in.RegistrationDate != nil {
		fields["registrationDate"] = in.RegistrationDate.Format(time.RFC3339)
	}
	if up.DeleteFrontImage {
		fields["deleteFrontImage"] = "true"
	}
	if up.DeleteBackImage {
		fields["deleteBackImage"] = "true"
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	for field, f := range map[string]*File{"prescriptionFront": up.Front, "prescriptionBack": up.Back} {
		if f == nil {
			continue
		}
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Data models.Patient `json:"data"`
	}
	if err := c.do(ctx, method, path, nil, w.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}
