package services

import (
	"context"
	"errors"

	"PatientRegistry/metrics"
	"PatientRegistry/models"
	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type StaffService struct {
	staff   StaffStore
	admins  AdminStore
	metrics *metrics.Collector
}

func NewStaffService(staff StaffStore, admins AdminStore, m *metrics.Collector) *StaffService {
	return &StaffService{staff: staff, admins: admins, metrics: m}
}

func (s *StaffService) ListStaff(ctx context.Context) ([]models.StaffProfile, error) {
	staff, err := s.staff.FindAll(ctx)
	if err != nil {
		zap.L().Error("list staff failed", zap.Error(err))
		return nil, util.NewInternalError("failed to list staff", err)
	}

	approvers, err := s.approvers(ctx, staff)
	if err != nil {
		return nil, err
	}
	out := make([]models.StaffProfile, 0, len(staff))
	for i := range staff {
		out = append(out, staff[i].Profile(referenceFor(approvers, staff[i].ApprovedBy)))
	}
	return out, nil
}

// CountPending is the number of signups waiting for an admin decision.
func (s *StaffService) CountPending(ctx context.Context) (int64, error) {
	n, err := s.staff.CountByStatus(ctx, models.StatusPending)
	if err != nil {
		zap.L().Error("count pending staff failed", zap.Error(err))
		return 0, util.NewInternalError("failed to count staff", err)
	}
	return n, nil
}

/*
* Parse both ids and the requested status
* Only the allowed transitions from the current status go through
* The write is conditional on the status we checked, a concurrent change loses
* The acting admin is recorded as approvedBy
 */
func (s *StaffService) UpdateStaffStatus(ctx context.Context, adminID primitive.ObjectID, staffID string, status string) (*models.StaffProfile, error) {
	next := models.StaffStatus(status)
	if !next.Valid() {
		return nil, util.NewValidationError(util.INVALID_STATUS)
	}
	id, err := primitive.ObjectIDFromHex(staffID)
	if err != nil {
		return nil, util.NewNotFoundError(util.STAFF_NOT_FOUND)
	}

	current, err := s.staff.FindByID(ctx, id)
	if errors.Is(err, util.ErrRecordNotFound) {
		return nil, util.NewNotFoundError(util.STAFF_NOT_FOUND)
	}
	if err != nil {
		zap.L().Error("load staff failed", zap.Error(err))
		return nil, util.NewInternalError("failed to update staff", err)
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, util.NewValidationError(util.INVALID_STATUS_TRANSITION + ": " + string(current.Status) + " -> " + string(next))
	}

	updated, err := s.staff.UpdateStatus(ctx, id, current.Status, next, adminID)
	if errors.Is(err, util.ErrRecordNotFound) {
		return nil, s.staleTransition(ctx, id, next)
	}
	if err != nil {
		zap.L().Error("update staff status failed", zap.Error(err))
		return nil, util.NewInternalError("failed to update staff", err)
	}
	s.metrics.StaffStatusChanged(string(next))
	zap.L().Info("staff status changed",
		zap.String("staff_id", id.Hex()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next)),
		zap.String("admin_id", adminID.Hex()),
	)

	approvers, err := s.approvers(ctx, []models.Staff{*updated})
	if err != nil {
		return nil, err
	}
	profile := updated.Profile(referenceFor(approvers, updated.ApprovedBy))
	return &profile, nil
}

// staleTransition explains a conditional write that matched nothing: the staff
// is gone, or another admin changed the status first.
func (s *StaffService) staleTransition(ctx context.Context, id primitive.ObjectID, next models.StaffStatus) error {
	latest, err := s.staff.FindByID(ctx, id)
	if errors.Is(err, util.ErrRecordNotFound) {
		return util.NewNotFoundError(util.STAFF_NOT_FOUND)
	}
	if err != nil {
		zap.L().Error("reload staff failed", zap.Error(err))
		return util.NewInternalError("failed to update staff", err)
	}
	zap.L().Warn("staff status changed concurrently",
		zap.String("staff_id", id.Hex()),
		zap.String("now", string(latest.Status)),
		zap.String("wanted", string(next)),
	)
	return util.NewValidationError(util.INVALID_STATUS_TRANSITION + ": " + string(latest.Status) + " -> " + string(next))
}

func (s *StaffService) approvers(ctx context.Context, staff []models.Staff) (map[primitive.ObjectID]*models.Reference, error) {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, st := range staff {
		if st.ApprovedBy != nil && !seen[*st.ApprovedBy] {
			seen[*st.ApprovedBy] = true
			ids = append(ids, *st.ApprovedBy)
		}
	}
	admins, err := s.admins.FindByIDs(ctx, ids)
	if err != nil {
		zap.L().Error("load approving admins failed", zap.Error(err))
		return nil, util.NewInternalError("failed to load approvers", err)
	}
	out := make(map[primitive.ObjectID]*models.Reference, len(admins))
	for i := range admins {
		out[admins[i].ID] = admins[i].Reference()
	}
	return out, nil
}

// referenceFor falls back to a bare id reference when the admin is gone.
func referenceFor(refs map[primitive.ObjectID]*models.Reference, id *primitive.ObjectID) *models.Reference {
	if id == nil {
		return nil
	}
	if ref, ok := refs[*id]; ok {
		return ref
	}
	return &models.Reference{ID: *id}
}
