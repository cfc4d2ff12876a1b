package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaffStatusTransitions(t *testing.T) {
	allowed := map[StaffStatus][]StaffStatus{
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {StatusBlocked},
		StatusBlocked:  {StatusApproved},
		StatusRejected: {StatusApproved},
	}
	all := []StaffStatus{StatusPending, StatusApproved, StatusRejected, StatusBlocked}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, StaffStatus("archived").Valid())
}

func TestPatientPatchApply(t *testing.T) {
	front := "https://cdn/front.jpg"
	p := &Patient{Name: "John Doe", Age: 40, Address: "12 Main St", PrescriptionFrontURL: &front}

	patch := PatientPatch{
		Age:                  Some(41),
		PrescriptionFrontURL: Some[*string](nil),
	}
	assert.False(t, patch.Empty())
	patch.Apply(p)

	assert.Equal(t, "John Doe", p.Name)
	assert.Equal(t, 41, p.Age)
	assert.Nil(t, p.PrescriptionFrontURL)
	assert.True(t, PatientPatch{}.Empty())
}

func TestPatientQuerySkip(t *testing.T) {
	q := PatientQuery{Page: 3, Limit: 10}
	assert.Equal(t, 20, q.Skip())

	assert.Zero(t, PatientQuery{Page: -4, Limit: 10}.Skip())
	assert.Equal(t, math.MaxInt, PatientQuery{Page: 922337203685477590, Limit: 10}.Skip())
}
