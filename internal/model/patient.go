package model

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type PatientStatus string

const (
	PatientActive     PatientStatus = "active"
	PatientInactive   PatientStatus = "inactive"
	PatientDischarged PatientStatus = "discharged"
)

func (s PatientStatus) Valid() bool {
	switch s {
	case PatientActive, PatientInactive, PatientDischarged:
		return true
	}
	return false
}

var bloodGroups = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {},
	"AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

func ValidBloodGroup(bg string) bool {
	_, ok := bloodGroups[bg]
	return ok
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

type MedicalHistoryEntry struct {
	Condition     string     `json:"condition"`
	DiagnosisDate *time.Time `json:"diagnosis_date,omitempty"`
	Status        string     `json:"status,omitempty"`
}

type Patient struct {
	ID                 string                `json:"id"`
	PatientCode        string                `json:"patient_code"`
	FirstName          string                `json:"first_name"`
	LastName           string                `json:"last_name"`
	FullName           string                `json:"full_name"`
	Age                int                   `json:"age"`
	Gender             Gender                `json:"gender"`
	DateOfBirth        *time.Time            `json:"date_of_birth,omitempty"`
	Phone              *string               `json:"phone,omitempty"`
	Email              *string               `json:"email,omitempty"`
	Address            Address               `json:"address"`
	EmergencyContact   EmergencyContact      `json:"emergency_contact"`
	MedicalHistory     []MedicalHistoryEntry `json:"medical_history"`
	BloodGroup         *string               `json:"blood_group,omitempty"`
	Allergies          []string              `json:"allergies"`
	CurrentMedications []string              `json:"current_medications"`
	Notes              *string               `json:"notes,omitempty"`
	Status             PatientStatus         `json:"status"`
	CreatedBy          *string               `json:"created_by,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// PatientFilter narrows list queries; Search matches code, names, phone and
// email case-insensitively.
type PatientFilter struct {
	Search string
	Status PatientStatus
	Page   int
	Limit  int
}

type StatusCount struct {
	Status PatientStatus `json:"status"`
	Count  int           `json:"count"`
}

type GenderCount struct {
	Gender Gender `json:"gender"`
	Count  int    `json:"count"`
}

type AgeBucket struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

type PatientStats struct {
	Total      int           `json:"total"`
	Statuses   []StatusCount `json:"statuses"`
	Genders    []GenderCount `json:"genders"`
	AgeBuckets []AgeBucket   `json:"age_buckets"`
}
