package model

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	// Username accepts either the username or the email address.
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the self-service updatable fields. Role and
// active status are deliberately absent; those are admin concerns.
type UpdateProfileRequest struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	Department   *string `json:"department"`
	PhoneNumber  *string `json:"phone_number"`
	ProfileImage *string `json:"profile_image"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type CreatePatientRequest struct {
	FirstName          string                `json:"first_name"`
	LastName           string                `json:"last_name"`
	Age                int                   `json:"age"`
	Gender             string                `json:"gender"`
	DateOfBirth        *time.Time            `json:"date_of_birth"`
	Phone              *string               `json:"phone"`
	Email              *string               `json:"email"`
	Address            Address               `json:"address"`
	EmergencyContact   EmergencyContact      `json:"emergency_contact"`
	MedicalHistory     []MedicalHistoryEntry `json:"medical_history"`
	BloodGroup         *string               `json:"blood_group"`
	Allergies          []string              `json:"allergies"`
	CurrentMedications []string              `json:"current_medications"`
	Notes              *string               `json:"notes"`
	Status             string                `json:"status"`
}

type UpdatePatientRequest struct {
	FirstName          *string               `json:"first_name"`
	LastName           *string               `json:"last_name"`
	Age                *int                  `json:"age"`
	Gender             *string               `json:"gender"`
	DateOfBirth        *time.Time            `json:"date_of_birth"`
	Phone              *string               `json:"phone"`
	Email              *string               `json:"email"`
	Address            *Address              `json:"address"`
	EmergencyContact   *EmergencyContact     `json:"emergency_contact"`
	MedicalHistory     []MedicalHistoryEntry `json:"medical_history"`
	BloodGroup         *string               `json:"blood_group"`
	Allergies          []string              `json:"allergies"`
	CurrentMedications []string              `json:"current_medications"`
	Notes              *string               `json:"notes"`
	Status             *string               `json:"status"`
}
