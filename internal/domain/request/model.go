package request

import (
	"time"

	"github.com/google/uuid"

	"github.com/dental/archive/internal/domain/patient"
)

// Status is the loan lifecycle state. Transitions move forward by
// convention (pending → ready → delivered); the system records whatever an
// operator sets and never deletes a request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
)

// Valid reports whether s is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReady, StatusDelivered:
		return true
	}
	return false
}

// ClinicRequest is a loan/checkout record for one or more physical folders.
// Patients holds snapshot copies taken at creation time: edits to the live
// records afterwards do not propagate into an issued request.
type ClinicRequest struct {
	ID             uuid.UUID         `json:"id"`
	RequesterName  string            `json:"requester_name"`
	RequesterPhone string            `json:"requester_phone"`
	Guard          string            `json:"guard"`
	ClinicNumber   string            `json:"clinic_number"`
	ClinicName     string            `json:"clinic_name"`
	Instructor     string            `json:"instructor"`
	Date           string            `json:"date"`
	StartTime      string            `json:"start_time"`
	EndTime        string            `json:"end_time"`
	Status         Status            `json:"status"`
	Patients       []patient.Patient `json:"patients"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Clone returns a deep copy of the request.
func (r ClinicRequest) Clone() ClinicRequest {
	cp := r
	cp.Patients = make([]patient.Patient, 0, len(r.Patients))
	for _, p := range r.Patients {
		cp.Patients = append(cp.Patients, p.Clone())
	}
	return cp
}
