package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"PatientRegistry/config/redis"
	"PatientRegistry/config/storage"
	"PatientRegistry/metrics"
	"PatientRegistry/models"
	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	DefaultPage     = 1
	DefaultLimit    = 10
	MaxLimit        = 100
	DefaultSortBy   = "registrationDate"
	dateOnlyLayout  = "2006-01-02"
	endOfDay        = 999 * time.Millisecond
	defaultMaxBytes = 10 << 20
)

var sortableFields = map[string]bool{
	"name":             true,
	"age":              true,
	"gender":           true,
	"address":          true,
	"mobileNo":         true,
	"alternativeNo":    true,
	"registrationDate": true,
	"createdAt":        true,
	"updatedAt":        true,
}

// Upload is one image file received with a request.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// PatientForm carries the raw form values. A nil field was not sent.
type PatientForm struct {
	Name             *string
	Age              *string
	Gender           *string
	Address          *string
	MobileNo         *string
	AlternativeNo    *string
	RegistrationDate *string
}

type PatientListRequest struct {
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

type PatientPage struct {
	Data        []models.Patient `json:"data"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
	TotalCount  int64            `json:"totalCount"`
}

type PatientConfig struct {
	RequireFrontImage bool
	MaxUploadBytes    int64
	Location          *time.Location
}

type PatientService struct {
	patients PatientStore
	staff    StaffStore
	blobs    storage.BlobStore
	cache    redis.Cache
	metrics  *metrics.Collector
	cfg      PatientConfig
	now      func() time.Time
	compress func([]byte) ([]byte, error)
}

func NewPatientService(patients PatientStore, staff StaffStore, blobs storage.BlobStore, cache redis.Cache, m *metrics.Collector, cfg PatientConfig) *PatientService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxBytes
	}
	if cache == nil {
		cache = redis.NopCache{}
	}
	return &PatientService{
		patients: patients,
		staff:    staff,
		blobs:    blobs,
		cache:    cache,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
		compress: CompressImage,
	}
}

/*
* Validate every required field and the uploads before touching storage
* Compress and store each image, a failed upload keeps a placeholder url
* Save the record against the registering staff and cache it
 */
func (s *PatientService) RegisterPatient(ctx context.Context, staff *models.Staff, form PatientForm, front, back *Upload) (*models.Patient, error) {
	for _, f := range []*string{form.Name, form.Age, form.Gender, form.Address, form.MobileNo} {
		if f == nil || strings.TrimSpace(*f) == "" {
			return nil, util.NewValidationError(util.PROVIDE_ALL_FIELDS)
		}
	}
	patch, err := s.formToPatch(form)
	if err != nil {
		return nil, err
	}
	if s.cfg.RequireFrontImage && front == nil {
		return nil, util.NewValidationError("Prescription front image is required")
	}
	if err := s.checkUploads(front, back); err != nil {
		return nil, err
	}

	patient := &models.Patient{RegistrationDate: s.now(), RegisteredByID: staff.ID}
	patch.Apply(patient)
	if front != nil {
		url := s.storeImage(ctx, util.FrontPrescriptionFolder, front)
		patient.PrescriptionFrontURL = &url
	}
	if back != nil {
		url := s.storeImage(ctx, util.BackPrescriptionFolder, back)
		patient.PrescriptionBackURL = &url
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		zap.L().Error("create patient failed", zap.Error(err))
		return nil, util.NewInternalError("failed to register patient", err)
	}
	patient.RegisteredBy = staff.Reference()
	s.cachePatient(ctx, patient)
	s.metrics.PatientRegistered()
	zap.L().Info("patient registered", zap.String("patient_id", patient.ID.Hex()), zap.String("staff_id", staff.ID.Hex()))
	return patient, nil
}

/*
* Load the record, only fields present in the form are changed
* Per side a new image replaces the old blob, else the delete flag clears it
* Write the patch and refresh the cached copy
 */
func (s *PatientService) UpdatePatient(ctx context.Context, patientID string, form PatientForm, front, back *Upload, deleteFront, deleteBack bool) (*models.Patient, error) {
	id, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		return nil, util.NewNotFoundError(util.PATIENT_NOT_FOUND)
	}
	existing, err := s.patients.FindByID(ctx, id)
	if errors.Is(err, util.ErrRecordNotFound) {
		return nil, util.NewNotFoundError(util.PATIENT_NOT_FOUND)
	}
	if err != nil {
		zap.L().Error("load patient failed", zap.Error(err))
		return nil, util.NewInternalError("failed to update patient", err)
	}

	patch, err := s.formToPatch(form)
	if err != nil {
		return nil, err
	}
	if err := s.checkUploads(front, back); err != nil {
		return nil, err
	}

	patch.PrescriptionFrontURL = s.replaceImage(ctx, util.FrontPrescriptionFolder, existing.PrescriptionFrontURL, front, deleteFront)
	patch.PrescriptionBackURL = s.replaceImage(ctx, util.BackPrescriptionFolder, existing.PrescriptionBackURL, back, deleteBack)

	// nothing to write: answer with the stored record, updatedAt untouched
	if patch.Empty() {
		if err := s.populate(ctx, []*models.Patient{existing}); err != nil {
			return nil, err
		}
		return existing, nil
	}

	updated, err := s.patients.Update(ctx, id, patch)
	if errors.Is(err, util.ErrRecordNotFound) {
		return nil, util.NewNotFoundError(util.PATIENT_NOT_FOUND)
	}
	if err != nil {
		zap.L().Error("update patient failed", zap.Error(err))
		return nil, util.NewInternalError("failed to update patient", err)
	}
	if err := s.populate(ctx, []*models.Patient{updated}); err != nil {
		return nil, err
	}
	s.cachePatient(ctx, updated)
	s.metrics.PatientUpdated()
	return updated, nil
}

func (s *PatientService) replaceImage(ctx context.Context, folder string, current *string, upload *Upload, remove bool) models.Optional[*string] {
	switch {
	case upload != nil:
		s.deleteImage(ctx, current)
		url := s.storeImage(ctx, folder, upload)
		return models.Some(&url)
	case remove:
		s.deleteImage(ctx, current)
		return models.Some[*string](nil)
	}
	return models.Optional[*string]{}
}

/*
* Search replaces the per-field filters
* Dates are whole days in the configured zone
* Sort field must be one of the known columns
 */
func (s *PatientService) ListPatients(ctx context.Context, req PatientListRequest) (*PatientPage, error) {
	q, err := s.buildQuery(req)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.patients.List(ctx, q)
	if err != nil {
		zap.L().Error("list patients failed", zap.Error(err))
		return nil, util.NewInternalError("failed to list patients", err)
	}
	ptrs := make([]*models.Patient, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}
	if err := s.populate(ctx, ptrs); err != nil {
		return nil, err
	}

	return &PatientPage{
		Data:        rows,
		CurrentPage: q.Page,
		TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		TotalCount:  total,
	}, nil
}

func (s *PatientService) GetPatientByID(ctx context.Context, patientID string) (*models.Patient, error) {
	id, err := primitive.ObjectIDFromHex(patientID)
	if err != nil {
		return nil, util.NewNotFoundError(util.PATIENT_NOT_FOUND)
	}

	var cached models.Patient
	hit, err := s.cache.Get(ctx, util.PatientKey+id.Hex(), &cached)
	if err != nil {
		zap.L().Warn("patient cache read failed", zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	patient, err := s.patients.FindByID(ctx, id)
	if errors.Is(err, util.ErrRecordNotFound) {
		return nil, util.NewNotFoundError(util.PATIENT_NOT_FOUND)
	}
	if err != nil {
		zap.L().Error("load patient failed", zap.Error(err))
		return nil, util.NewInternalError("failed to load patient", err)
	}
	if err := s.populate(ctx, []*models.Patient{patient}); err != nil {
		return nil, err
	}
	s.cachePatient(ctx, patient)
	return patient, nil
}

func (s *PatientService) buildQuery(req PatientListRequest) (models.PatientQuery, error) {
	q := models.PatientQuery{
		Search:        strings.TrimSpace(req.Search),
		Name:          strings.TrimSpace(req.Name),
		Address:       strings.TrimSpace(req.Address),
		MobileNo:      strings.TrimSpace(req.MobileNo),
		AlternativeNo: strings.TrimSpace(req.AlternativeNo),
		SortBy:        req.SortBy,
		Ascending:     strings.EqualFold(req.SortOrder, "asc"),
		Page:          req.Page,
		Limit:         req.Limit,
	}

	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if !sortableFields[q.SortBy] {
		return q, util.NewValidationError("Invalid sort field: " + q.SortBy)
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Page < 1 || q.Limit < 1 {
		return q, util.NewValidationError("page and limit must be positive integers")
	}
	q.Limit = min(q.Limit, MaxLimit)
	if q.Page-1 > math.MaxInt/q.Limit {
		return q, util.NewValidationError("page is out of range")
	}

	if req.StartDate != "" {
		day, err := parseDay(req.StartDate, s.cfg.Location)
		if err != nil {
			return q, util.NewValidationError("Invalid startDate")
		}
		q.From = &day
	}
	if req.EndDate != "" {
		day, err := parseDay(req.EndDate, s.cfg.Location)
		if err != nil {
			return q, util.NewValidationError("Invalid endDate")
		}
		end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(endOfDay), s.cfg.Location)
		q.To = &end
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return q, util.NewValidationError("startDate must not be after endDate")
	}

	if req.RegisteredBy != "" {
		staffID, err := primitive.ObjectIDFromHex(req.RegisteredBy)
		if err != nil {
			return q, util.NewValidationError("Invalid registeredBy")
		}
		q.RegisteredBy = &staffID
	}
	return q, nil
}

// parseDay accepts YYYY-MM-DD or RFC3339 and returns local midnight of that day.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateOnlyLayout, s, loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, err
		}
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateOnlyLayout, s, loc)
}

func (s *PatientService) formToPatch(form PatientForm) (models.PatientPatch, error) {
	var patch models.PatientPatch

	required := map[string]*string{"name": form.Name, "address": form.Address, "mobileNo": form.MobileNo}
	for field, v := range required {
		if v != nil && strings.TrimSpace(*v) == "" {
			return patch, util.NewValidationError(field + " cannot be empty")
		}
	}
	if form.Name != nil {
		patch.Name = models.Some(strings.TrimSpace(*form.Name))
	}
	if form.Address != nil {
		patch.Address = models.Some(strings.TrimSpace(*form.Address))
	}
	if form.MobileNo != nil {
		patch.MobileNo = models.Some(strings.TrimSpace(*form.MobileNo))
	}
	if form.AlternativeNo != nil {
		patch.AlternativeNo = models.Some(strings.TrimSpace(*form.AlternativeNo))
	}
	if form.Age != nil {
		age, err := strconv.Atoi(strings.TrimSpace(*form.Age))
		if err != nil || age <= 0 {
			return patch, util.NewValidationError("age must be a positive integer")
		}
		patch.Age = models.Some(age)
	}
	if form.Gender != nil {
		g := models.Gender(strings.TrimSpace(*form.Gender))
		if !g.Valid() {
			return patch, util.NewValidationError("gender must be one of Male, Female, Other")
		}
		patch.Gender = models.Some(g)
	}
	if form.RegistrationDate != nil && strings.TrimSpace(*form.RegistrationDate) != "" {
		t, err := parseTimestamp(strings.TrimSpace(*form.RegistrationDate), s.cfg.Location)
		if err != nil {
			return patch, util.NewValidationError("Invalid registrationDate")
		}
		patch.RegistrationDate = models.Some(t)
	}
	return patch, nil
}

func (s *PatientService) checkUploads(uploads ...*Upload) error {
	for _, up := range uploads {
		if up == nil {
			continue
		}
		if int64(len(up.Data)) > s.cfg.MaxUploadBytes {
			return util.NewValidationError(fmt.Sprintf("%s exceeds the %d MB upload limit", up.FileName, s.cfg.MaxUploadBytes>>20))
		}
		if len(up.Data) == 0 || !IsImage(up.Data, up.ContentType) {
			return util.NewValidationError("Only image files are allowed")
		}
	}
	return nil
}

/*
* Compression failure keeps the original bytes
* Storage failure keeps a placeholder url so the record still saves
 */
func (s *PatientService) storeImage(ctx context.Context, folder string, up *Upload) string {
	data, contentType, name := up.Data, up.ContentType, up.FileName
	if out, err := s.compress(data); err != nil {
		zap.L().Warn("image compression failed, storing original", zap.String("file", name), zap.Error(err))
	} else {
		data, contentType = out, "image/jpeg"
		name = strings.TrimSuffix(name, path.Ext(name)) + ".jpg"
	}

	key := storage.ObjectKey(folder, name, s.now())
	url, err := s.blobs.Upload(ctx, key, contentType, data)
	if err != nil {
		zap.L().Error("image upload failed, using placeholder url", zap.String("key", key), zap.Error(err))
		s.metrics.BlobFallback()
		return storage.PlaceholderURL(key)
	}
	return url
}

func (s *PatientService) deleteImage(ctx context.Context, url *string) {
	if url == nil || *url == "" {
		return
	}
	if err := s.blobs.Delete(ctx, *url); err != nil {
		zap.L().Warn("image delete failed", zap.String("url", *url), zap.Error(err))
	}
}

func (s *PatientService) populate(ctx context.Context, patients []*models.Patient) error {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, p := range patients {
		if !seen[p.RegisteredByID] {
			seen[p.RegisteredByID] = true
			ids = append(ids, p.RegisteredByID)
		}
	}
	staff, err := s.staff.FindByIDs(ctx, ids)
	if err != nil {
		zap.L().Error("load registering staff failed", zap.Error(err))
		return util.NewInternalError("failed to load registering staff", err)
	}
	refs := make(map[primitive.ObjectID]*models.Reference, len(staff))
	for i := range staff {
		refs[staff[i].ID] = staff[i].Reference()
	}
	for _, p := range patients {
		p.RegisteredBy = referenceFor(refs, &p.RegisteredByID)
	}
	return nil
}

func (s *PatientService) cachePatient(ctx context.Context, p *models.Patient) {
	if err := s.cache.Set(ctx, util.PatientKey+p.ID.Hex(), p); err != nil {
		zap.L().Warn("patient cache write failed", zap.Error(err))
	}
}
